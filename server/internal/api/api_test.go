package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marocz/wearguard/pkg/types"
	"github.com/marocz/wearguard/server/internal/alerts"
	"github.com/marocz/wearguard/server/internal/api"
	"github.com/marocz/wearguard/server/internal/config"
	"github.com/marocz/wearguard/server/internal/features"
	"github.com/marocz/wearguard/server/internal/metrics"
	"github.com/marocz/wearguard/server/internal/model"
	"github.com/marocz/wearguard/server/internal/predict"
	"github.com/marocz/wearguard/server/internal/risk"
	"github.com/marocz/wearguard/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

// fixedClassifier always reports failure probability p.
type fixedClassifier struct{ p float64 }

func (f fixedClassifier) Classes() []int { return []int{0, 1} }

func (f fixedClassifier) PredictProba(features.Vector) ([]float64, error) {
	return []float64{1 - f.p, f.p}, nil
}

func newHandler(p float64, cfg config.ServerConfig) http.Handler {
	holder := predict.NewHolder(predict.New(model.IdentityScaler{}, fixedClassifier{p: p}))
	return api.New(holder, metrics.New(), cfg)
}

func defaultServer() config.ServerConfig {
	return config.Default().Server
}

const greenBody = `{
  "air_temperature_k": 300,
  "process_temperature_k": 310,
  "rotational_speed_rpm": 1500,
  "torque_nm": 40,
  "tool_wear_min": 100,
  "type": "L"
}`

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	for _, path := range []string{"/api/v1/health", "/health"} {
		rr := get(t, h, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status: got %d, want 200", path, rr.Code)
		}
		var resp types.HealthResponse
		decode(t, rr, &resp)
		if resp.Status != "ok" {
			t.Errorf("%s status field: got %q, want ok", path, resp.Status)
		}
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	if rr := post(t, h, "/api/v1/health", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /api/v1/predict --------------------------------------------------------

func TestPredict_Green(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	rr := post(t, h, "/api/v1/predict", greenBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q", ct)
	}

	var resp types.PredictResponse
	decode(t, rr, &resp)
	if resp.FailureProbability != 0.05 {
		t.Errorf("failure_probability: got %v, want 0.05", resp.FailureProbability)
	}
	if resp.RiskLevel != "Green" {
		t.Errorf("risk_level: got %q, want Green", resp.RiskLevel)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].ID != "routine_monitoring" {
		t.Fatalf("recommendations: got %+v", resp.Recommendations)
	}
	if resp.Recommendations[0].Severity != "Low" {
		t.Errorf("severity: got %q, want Low", resp.Recommendations[0].Severity)
	}
}

func TestPredict_LegacyRoute(t *testing.T) {
	h := newHandler(0.7, defaultServer())
	rr := post(t, h, "/predict", greenBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp types.PredictResponse
	decode(t, rr, &resp)
	if resp.RiskLevel != "Red" {
		t.Errorf("risk_level: got %q, want Red", resp.RiskLevel)
	}
	want := []string{"urgent_shutdown", "check_spare_parts"}
	if len(resp.Recommendations) != len(want) {
		t.Fatalf("recommendations: got %d, want %d", len(resp.Recommendations), len(want))
	}
	for i, id := range want {
		if resp.Recommendations[i].ID != id {
			t.Errorf("recommendations[%d]: got %q, want %q", i, resp.Recommendations[i].ID, id)
		}
	}
}

func TestPredict_RecommendationsDisabledEncodeEmptyList(t *testing.T) {
	holder := predict.NewHolder(predict.New(model.IdentityScaler{}, fixedClassifier{p: 0.2}, predict.WithRecommendations(false)))
	h := api.New(holder, metrics.New(), defaultServer())

	rr := post(t, h, "/api/v1/predict", greenBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"recommendations":[]`) {
		t.Errorf("body should carry an empty list: %s", rr.Body.String())
	}
}

func TestPredict_UnknownTypeAccepted(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	body := strings.Replace(greenBody, `"type": "L"`, `"type": "Z"`, 1)
	if rr := post(t, h, "/api/v1/predict", body); rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestPredict_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		field    string
	}{
		{"empty body", "", api.CodeInvalidJSON, ""},
		{"malformed", "{", api.CodeInvalidJSON, ""},
		{"wrong type", strings.Replace(greenBody, "1500", `"fast"`, 1), api.CodeInvalidJSON, ""},
		{"missing torque", `{"air_temperature_k":300,"process_temperature_k":310,"rotational_speed_rpm":1500,"tool_wear_min":1,"type":"M"}`, api.CodeInvalidRequest, "torque_nm"},
		{"missing type", `{"air_temperature_k":300,"process_temperature_k":310,"rotational_speed_rpm":1500,"torque_nm":40,"tool_wear_min":1}`, api.CodeInvalidRequest, "type"},
	}
	h := newHandler(0.05, defaultServer())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(t, h, "/api/v1/predict", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
			var resp types.ErrorResponse
			decode(t, rr, &resp)
			if resp.Error != tc.wantCode {
				t.Errorf("error: got %q, want %q", resp.Error, tc.wantCode)
			}
			if tc.field != "" && (len(resp.Fields) != 1 || resp.Fields[0] != tc.field) {
				t.Errorf("fields: got %v, want [%s]", resp.Fields, tc.field)
			}
			if resp.RequestID == "" {
				t.Error("request_id missing from error body")
			}
		})
	}
}

func TestPredict_ZeroValuesArePresent(t *testing.T) {
	// Zero tool wear is a valid reading, not a missing field.
	h := newHandler(0.05, defaultServer())
	body := strings.Replace(greenBody, `"tool_wear_min": 100`, `"tool_wear_min": 0`, 1)
	if rr := post(t, h, "/api/v1/predict", body); rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
}

func TestPredict_ZeroPowerIsUnprocessable(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	body := strings.Replace(greenBody, `"torque_nm": 40`, `"torque_nm": 0`, 1)
	rr := post(t, h, "/api/v1/predict", body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rr.Code)
	}
	var resp types.ErrorResponse
	decode(t, rr, &resp)
	if resp.Error != api.CodeAnomaly {
		t.Errorf("error: got %q, want %q", resp.Error, api.CodeAnomaly)
	}
	if !strings.Contains(resp.Detail, "temp_power") {
		t.Errorf("detail should name the feature: %q", resp.Detail)
	}
}

func TestPredict_NoPipeline(t *testing.T) {
	h := api.New(&predict.Holder{}, metrics.New(), defaultServer())
	rr := post(t, h, "/api/v1/predict", greenBody)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rr.Code)
	}
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	if rr := get(t, h, "/api/v1/predict"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

func TestPredict_ByteIdenticalRepeats(t *testing.T) {
	h := newHandler(0.42, defaultServer())
	body := strings.Replace(greenBody, `"tool_wear_min": 100`, `"tool_wear_min": 240`, 1)
	a := post(t, h, "/api/v1/predict", body).Body.String()
	b := post(t, h, "/api/v1/predict", body).Body.String()
	if a != b {
		t.Errorf("responses differ:\n%s\n%s", a, b)
	}
}

// --- middleware -------------------------------------------------------------

func TestRequestID(t *testing.T) {
	h := newHandler(0.05, defaultServer())

	rr := get(t, h, "/health")
	if rr.Header().Get(api.HeaderRequestID) == "" {
		t.Error("X-Request-ID not assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.HeaderRequestID, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(api.HeaderRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID: got %q, want abc-123", got)
	}
}

func TestCORS(t *testing.T) {
	h := newHandler(0.05, defaultServer())

	// Preflight from an allowed dev origin.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Errorf("allow-headers: got %q", got)
	}

	// Simple request from a foreign origin gets no CORS grant.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin granted: %q", got)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	t.Setenv("WG_API_TEST_KEY", "s3cret")
	cfg := defaultServer()
	cfg.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "WG_API_TEST_KEY"}
	h := newHandler(0.05, cfg)

	if rr := post(t, h, "/api/v1/predict", greenBody); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: got %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(greenBody))
	req.Header.Set("x-api-key", "s3cret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("correct key: got %d, want 200", rr.Code)
	}

	if rr := get(t, h, "/api/v1/health"); rr.Code != http.StatusOK {
		t.Errorf("health behind auth: got %d, want 200", rr.Code)
	}
}

// --- /metrics ---------------------------------------------------------------

func TestMetrics_CountsPredictions(t *testing.T) {
	h := newHandler(0.3, defaultServer())
	post(t, h, "/api/v1/predict", greenBody)
	post(t, h, "/api/v1/predict", greenBody)
	post(t, h, "/api/v1/predict", "{")

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`wearguard_predictions_total{risk_level="Yellow"} 2`,
		`wearguard_predictions_total{risk_level="Red"} 0`,
		`wearguard_prediction_errors_total{reason="invalid_request"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts_RaisedByRedPrediction(t *testing.T) {
	holder := predict.NewHolder(predict.New(model.IdentityScaler{}, fixedClassifier{p: 0.9}))
	notifier := alerts.New(config.AlertsConfig{MinLevel: "Red", Cooldown: time.Hour})
	h := api.New(holder, metrics.New(), defaultServer(), api.WithAlerts(notifier))

	rr := get(t, h, "/api/v1/alerts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"alerts":[]`) {
		t.Errorf("empty alert list: %s", rr.Body.String())
	}

	first := post(t, h, "/api/v1/predict", greenBody)
	post(t, h, "/api/v1/predict", greenBody)
	notifier.Wait()

	var resp struct {
		Alerts []alerts.Alert `json:"alerts"`
	}
	decode(t, get(t, h, "/api/v1/alerts"), &resp)
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts: got %d, want 1 (second held by cooldown)", len(resp.Alerts))
	}
	if resp.Alerts[0].RiskLevel != risk.Red {
		t.Errorf("risk_level: got %q", resp.Alerts[0].RiskLevel)
	}
	if id := first.Header().Get(api.HeaderRequestID); resp.Alerts[0].RequestID != id {
		t.Errorf("request_id: got %q, want %q", resp.Alerts[0].RequestID, id)
	}
}

func TestAlerts_MethodNotAllowed(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	if rr := post(t, h, "/api/v1/alerts", "{}"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /api/v1/predictions ----------------------------------------------------

func TestPredictions_LookupByRequestID(t *testing.T) {
	holder := predict.NewHolder(predict.New(model.IdentityScaler{}, fixedClassifier{p: 0.3}))
	h := api.New(holder, metrics.New(), defaultServer(), api.WithHistory(store.New(time.Hour, 10)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(greenBody))
	req.Header.Set(api.HeaderRequestID, "lookup-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	post(t, h, "/api/v1/predict", greenBody)

	rr := get(t, h, "/api/v1/predictions/lookup-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var rec types.PredictionRecord
	decode(t, rr, &rec)
	if rec.RequestID != "lookup-1" || rec.Response.RiskLevel != "Yellow" {
		t.Errorf("record: %+v", rec)
	}
	if rec.Request.TorqueNm == nil || *rec.Request.TorqueNm != 40 {
		t.Errorf("request torque: %v", rec.Request.TorqueNm)
	}

	var list types.PredictionList
	decode(t, get(t, h, "/api/v1/predictions?limit=1"), &list)
	if len(list.Predictions) != 1 || list.Predictions[0].RequestID == "lookup-1" {
		t.Errorf("limit=1 should return only the newest: %+v", list.Predictions)
	}

	if rr := get(t, h, "/api/v1/predictions/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", rr.Code)
	}
	if rr := get(t, h, "/api/v1/predictions?limit=zero"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d, want 400", rr.Code)
	}
}

func TestPredictions_HistoryDisabled(t *testing.T) {
	h := newHandler(0.05, defaultServer())
	post(t, h, "/api/v1/predict", greenBody)

	rr := get(t, h, "/api/v1/predictions")
	if !strings.Contains(rr.Body.String(), `"predictions":[]`) {
		t.Errorf("list without history: %s", rr.Body.String())
	}
	if rr := get(t, h, "/api/v1/predictions/anything"); rr.Code != http.StatusNotFound {
		t.Errorf("lookup without history: got %d, want 404", rr.Code)
	}
}

// --- /ws/predictions --------------------------------------------------------

// recordingFeed captures published records.
type recordingFeed struct {
	http.Handler
	records []types.PredictionRecord
}

func (f *recordingFeed) Publish(rec types.PredictionRecord) { f.records = append(f.records, rec) }

func TestFeed_PublishesServedPredictions(t *testing.T) {
	feed := &recordingFeed{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})}
	holder := predict.NewHolder(predict.New(model.IdentityScaler{}, fixedClassifier{p: 0.6}))
	h := api.New(holder, metrics.New(), defaultServer(), api.WithFeed(feed))

	rr := post(t, h, "/api/v1/predict", greenBody)
	post(t, h, "/api/v1/predict", "{")

	if len(feed.records) != 1 {
		t.Fatalf("published: got %d, want 1", len(feed.records))
	}
	rec := feed.records[0]
	if rec.RequestID != rr.Header().Get(api.HeaderRequestID) || rec.Response.RiskLevel != "Red" {
		t.Errorf("record: %+v", rec)
	}
	if rr := get(t, h, "/ws/predictions"); rr.Code != http.StatusTeapot {
		t.Errorf("feed not mounted: got %d", rr.Code)
	}
}
