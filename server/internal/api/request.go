package api

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marocz/wearguard/pkg/types"
	"github.com/marocz/wearguard/server/internal/features"
)

// RequestError describes a prediction request that could not be decoded.
type RequestError struct {
	Code   string // CodeInvalidJSON or CodeInvalidRequest
	Detail string
	Fields []string
}

func (e *RequestError) Error() string {
	if len(e.Fields) > 0 {
		return e.Code + ": " + e.Detail + ": " + strings.Join(e.Fields, ", ")
	}
	return e.Code + ": " + e.Detail
}

var defaultValidator = newValidator()

// DecodeReading parses a PredictRequest JSON document from r and converts it
// to a pipeline reading. Errors are *RequestError.
func DecodeReading(r io.Reader) (features.Reading, error) {
	reading, rerr := decodeReading(defaultValidator, r)
	if rerr != nil {
		return features.Reading{}, rerr
	}
	return reading, nil
}

func decodeReading(v *validator.Validate, r io.Reader) (features.Reading, *RequestError) {
	var req types.PredictRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		detail := err.Error()
		if errors.Is(err, io.EOF) {
			detail = "empty body"
		}
		return features.Reading{}, &RequestError{Code: CodeInvalidJSON, Detail: detail}
	}

	if err := v.Struct(req); err != nil {
		rerr := &RequestError{Code: CodeInvalidRequest, Detail: "missing required fields"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				rerr.Fields = append(rerr.Fields, fe.Field())
			}
		} else {
			rerr.Detail = err.Error()
		}
		return features.Reading{}, rerr
	}

	return toReading(req), nil
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toReading maps a validated request onto the pipeline input.
func toReading(req types.PredictRequest) features.Reading {
	return features.Reading{
		AirTemperatureK:     *req.AirTemperatureK,
		ProcessTemperatureK: *req.ProcessTemperatureK,
		RotationalSpeedRPM:  *req.RotationalSpeedRPM,
		TorqueNm:            *req.TorqueNm,
		ToolWearMin:         *req.ToolWearMin,
		Type:                *req.Type,
	}
}
