package features

import "math"

// Machine types accepted by the one-hot encoding. Any other value, including
// TypeHigh, encodes as (0, 0).
const (
	TypeLow    = "L"
	TypeMedium = "M"
	TypeHigh   = "H"
)

// Size is the number of columns in a Vector.
const Size = 11

// Column indexes into a Vector.
const (
	ColAirTemp = iota
	ColProcessTemp
	ColRPM
	ColTorque
	ColToolWear
	ColPower
	ColPowerWear
	ColTempDiff
	ColTempPower
	ColTypeL
	ColTypeM
)

// Columns names each Vector position, in training order.
var Columns = [Size]string{
	"air_temperature_k",
	"process_temperature_k",
	"rotational_speed_rpm",
	"torque_nm",
	"tool_wear_min",
	"power",
	"power_wear",
	"temp_diff",
	"temp_power",
	"type_l",
	"type_m",
}

// Reading is one raw sensor sample for a machine.
type Reading struct {
	AirTemperatureK     float64
	ProcessTemperatureK float64
	RotationalSpeedRPM  float64
	TorqueNm            float64
	ToolWearMin         float64
	// Type is "L", "M" or "H". Unknown values are accepted and encode like "H".
	Type string
}

// Vector is the engineered feature row consumed by the scaler.
type Vector [Size]float64

// Power returns rotational speed × torque.
func (r Reading) Power() float64 {
	return r.RotationalSpeedRPM * r.TorqueNm
}

// TempDiff returns process temperature minus air temperature, in kelvin.
func (r Reading) TempDiff() float64 {
	return r.ProcessTemperatureK - r.AirTemperatureK
}

// Build derives the engineered features and returns them in Columns order.
func Build(r Reading) Vector {
	power := r.Power()
	tempDiff := r.TempDiff()

	var typeL, typeM float64
	switch r.Type {
	case TypeLow:
		typeL = 1
	case TypeMedium:
		typeM = 1
	}

	return Vector{
		ColAirTemp:     r.AirTemperatureK,
		ColProcessTemp: r.ProcessTemperatureK,
		ColRPM:         r.RotationalSpeedRPM,
		ColTorque:      r.TorqueNm,
		ColToolWear:    r.ToolWearMin,
		ColPower:       power,
		ColPowerWear:   power * r.ToolWearMin,
		ColTempDiff:    tempDiff,
		ColTempPower:   tempDiff / power,
		ColTypeL:       typeL,
		ColTypeM:       typeM,
	}
}

// Finite reports whether every column is a finite number. When it is not,
// column names the first offending position.
func (v Vector) Finite() (column string, ok bool) {
	for i, x := range v {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return Columns[i], false
		}
	}
	return "", true
}

// Map returns the vector keyed by column name. Used in logs and error
// messages.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Size)
	for i, x := range v {
		m[Columns[i]] = x
	}
	return m
}
