package api

import (
	"net/http"
	"strconv"

	"github.com/marocz/wearguard/pkg/types"
	"github.com/marocz/wearguard/server/internal/alerts"
	"github.com/marocz/wearguard/server/internal/store"
)

// defaultListLimit caps GET /api/v1/predictions when no limit is given.
const defaultListLimit = 100

// listPredictions returns GET /api/v1/predictions?limit=N, newest first.
func (h *Handler) listPredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, r, http.StatusMethodNotAllowed, types.ErrorResponse{Error: CodeMethodNotAllowed})
		return
	}

	limit := defaultListLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			jsonErr(w, r, http.StatusBadRequest, types.ErrorResponse{
				Error:  CodeInvalidRequest,
				Detail: "limit must be a positive integer",
				Fields: []string{"limit"},
			})
			return
		}
		limit = n
	}

	out := types.PredictionList{Predictions: []types.PredictionRecord{}}
	if h.history != nil {
		for _, e := range h.history.List(limit) {
			out.Predictions = append(out.Predictions, toRecord(e))
		}
	}
	jsonResp(w, http.StatusOK, out)
}

// getPrediction returns GET /api/v1/predictions/{id}.
func (h *Handler) getPrediction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, r, http.StatusMethodNotAllowed, types.ErrorResponse{Error: CodeMethodNotAllowed})
		return
	}
	id := r.PathValue("id")
	if h.history == nil {
		jsonErr(w, r, http.StatusNotFound, types.ErrorResponse{Error: CodeNotFound, Detail: "prediction history is disabled"})
		return
	}
	e, ok := h.history.Get(id)
	if !ok {
		jsonErr(w, r, http.StatusNotFound, types.ErrorResponse{Error: CodeNotFound, Detail: "no prediction with request id " + id})
		return
	}
	jsonResp(w, http.StatusOK, toRecord(e))
}

// listAlerts returns GET /api/v1/alerts, the alerts raised in the past hour.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, r, http.StatusMethodNotAllowed, types.ErrorResponse{Error: CodeMethodNotAllowed})
		return
	}
	list := []*alerts.Alert{}
	if h.alerts != nil {
		list = h.alerts.Recent()
	}
	jsonResp(w, http.StatusOK, map[string]interface{}{"alerts": list})
}

func toRecord(e store.Entry) types.PredictionRecord {
	return types.PredictionRecord{
		RequestID: e.ID,
		ServedAt:  e.StoredAt,
		Request: types.PredictRequest{
			AirTemperatureK:     types.Float(e.Reading.AirTemperatureK),
			ProcessTemperatureK: types.Float(e.Reading.ProcessTemperatureK),
			RotationalSpeedRPM:  types.Float(e.Reading.RotationalSpeedRPM),
			TorqueNm:            types.Float(e.Reading.TorqueNm),
			ToolWearMin:         types.Float(e.Reading.ToolWearMin),
			Type:                types.String(e.Reading.Type),
		},
		Response: ToResponse(&e.Result),
	}
}
