package features

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBuild_EndToEndReading(t *testing.T) {
	v := Build(Reading{
		AirTemperatureK:     300,
		ProcessTemperatureK: 310,
		RotationalSpeedRPM:  1500,
		TorqueNm:            40,
		ToolWearMin:         100,
		Type:                "L",
	})

	checks := []struct {
		col  int
		want float64
	}{
		{ColAirTemp, 300},
		{ColProcessTemp, 310},
		{ColRPM, 1500},
		{ColTorque, 40},
		{ColToolWear, 100},
		{ColPower, 60000},
		{ColPowerWear, 6000000},
		{ColTempDiff, 10},
		{ColTypeL, 1},
		{ColTypeM, 0},
	}
	for _, c := range checks {
		if v[c.col] != c.want {
			t.Errorf("%s = %v, want %v", Columns[c.col], v[c.col], c.want)
		}
	}
	if !almostEqual(v[ColTempPower], 10.0/60000.0, 1e-12) {
		t.Errorf("temp_power = %v, want ≈0.000167", v[ColTempPower])
	}
}

func TestBuild_TypeEncoding(t *testing.T) {
	tests := []struct {
		typ          string
		wantL, wantM float64
	}{
		{"L", 1, 0},
		{"M", 0, 1},
		{"H", 0, 0},
		{"", 0, 0},
		{"l", 0, 0},
		{"XL", 0, 0},
	}
	for _, tc := range tests {
		t.Run("type="+tc.typ, func(t *testing.T) {
			v := Build(Reading{RotationalSpeedRPM: 1000, TorqueNm: 10, Type: tc.typ})
			if v[Size-2] != tc.wantL || v[Size-1] != tc.wantM {
				t.Errorf("last two = (%v, %v), want (%v, %v)", v[Size-2], v[Size-1], tc.wantL, tc.wantM)
			}
		})
	}
}

func TestBuild_ZeroPowerPropagatesIEEE(t *testing.T) {
	// Positive temp diff over zero power.
	v := Build(Reading{AirTemperatureK: 300, ProcessTemperatureK: 305, RotationalSpeedRPM: 0, TorqueNm: 40})
	if !math.IsInf(v[ColTempPower], 1) {
		t.Errorf("temp_power = %v, want +Inf", v[ColTempPower])
	}

	// Zero temp diff over zero power.
	v = Build(Reading{AirTemperatureK: 300, ProcessTemperatureK: 300, RotationalSpeedRPM: 1500, TorqueNm: 0})
	if !math.IsNaN(v[ColTempPower]) {
		t.Errorf("temp_power = %v, want NaN", v[ColTempPower])
	}
}

func TestVector_Finite(t *testing.T) {
	ok := Build(Reading{AirTemperatureK: 300, ProcessTemperatureK: 310, RotationalSpeedRPM: 1500, TorqueNm: 40})
	if col, finite := ok.Finite(); !finite {
		t.Errorf("Finite() = (%q, false), want true", col)
	}

	bad := Build(Reading{AirTemperatureK: 300, ProcessTemperatureK: 310})
	col, finite := bad.Finite()
	if finite {
		t.Fatal("Finite() = true for zero power, want false")
	}
	if col != "temp_power" {
		t.Errorf("column = %q, want temp_power", col)
	}
}

func TestBuild_Pure(t *testing.T) {
	r := Reading{AirTemperatureK: 298.1, ProcessTemperatureK: 308.6, RotationalSpeedRPM: 1551, TorqueNm: 42.8, ToolWearMin: 0, Type: "M"}
	if Build(r) != Build(r) {
		t.Error("Build returned different vectors for the same reading")
	}
}

func TestVector_Map(t *testing.T) {
	m := Build(Reading{RotationalSpeedRPM: 2, TorqueNm: 3, Type: "M"}).Map()
	if len(m) != Size {
		t.Fatalf("len = %d, want %d", len(m), Size)
	}
	if m["power"] != 6 {
		t.Errorf("power = %v, want 6", m["power"])
	}
	if m["type_m"] != 1 {
		t.Errorf("type_m = %v, want 1", m["type_m"])
	}
}
