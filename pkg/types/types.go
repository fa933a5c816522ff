package types

import "time"

// PredictRequest is the body of POST /api/v1/predict.
//
// Fields are pointers so a missing field can be told apart from a zero
// reading. Type accepts any string; values other than "L" and "M" encode
// like "H".
type PredictRequest struct {
	AirTemperatureK     *float64 `json:"air_temperature_k" validate:"required"`
	ProcessTemperatureK *float64 `json:"process_temperature_k" validate:"required"`
	RotationalSpeedRPM  *float64 `json:"rotational_speed_rpm" validate:"required"`
	TorqueNm            *float64 `json:"torque_nm" validate:"required"`
	ToolWearMin         *float64 `json:"tool_wear_min" validate:"required"`
	Type                *string  `json:"type" validate:"required"`
}

// PredictResponse is the body returned by a successful prediction.
type PredictResponse struct {
	FailureProbability float64          `json:"failure_probability"`
	RiskLevel          string           `json:"risk_level"` // Green | Yellow | Red
	Recommendations    []Recommendation `json:"recommendations"`
}

// Recommendation is one maintenance action in a PredictResponse.
type Recommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Severity    string `json:"severity"` // Low | Medium | High
	Description string `json:"description"`
}

// PredictionRecord is a previously served prediction, returned by
// GET /api/v1/predictions/{id}.
type PredictionRecord struct {
	RequestID string          `json:"request_id"`
	ServedAt  time.Time       `json:"served_at"`
	Request   PredictRequest  `json:"request"`
	Response  PredictResponse `json:"response"`
}

// PredictionList is the body of GET /api/v1/predictions.
type PredictionList struct {
	Predictions []PredictionRecord `json:"predictions"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	// Error is a stable machine-readable code, e.g. "computation_anomaly".
	Error string `json:"error"`

	// Detail is a human-readable explanation.
	Detail string `json:"detail,omitempty"`

	// Fields lists the request fields that failed validation.
	Fields []string `json:"fields,omitempty"`

	// RequestID echoes the X-Request-ID of the failed request.
	RequestID string `json:"request_id,omitempty"`
}

// Float returns a pointer to v. Handy for building requests in code.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
