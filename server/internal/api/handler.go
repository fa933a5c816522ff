package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marocz/wearguard/pkg/types"
	"github.com/marocz/wearguard/server/internal/alerts"
	"github.com/marocz/wearguard/server/internal/auth"
	"github.com/marocz/wearguard/server/internal/config"
	"github.com/marocz/wearguard/server/internal/metrics"
	"github.com/marocz/wearguard/server/internal/predict"
	"github.com/marocz/wearguard/server/internal/recommend"
	"github.com/marocz/wearguard/server/internal/store"
)

// maxBodyBytes caps the size of a prediction request body.
const maxBodyBytes = 1 << 20

// Error codes returned in types.ErrorResponse.Error.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidRequest   = "invalid_request"
	CodeAnomaly          = "computation_anomaly"
	CodeModelUnavailable = "model_unavailable"
	CodeInternal         = "internal"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
)

// Handler is the HTTP handler for the prediction API.
type Handler struct {
	pipelines *predict.Holder
	metrics   *metrics.Metrics
	alerts    *alerts.Engine
	history   *store.Store
	feed      Feed
	validate  *validator.Validate
	mux       *http.ServeMux
}

// Option configures optional parts of the Handler.
type Option func(*Handler)

// WithAlerts raises alerts for predictions through e and serves
// GET /api/v1/alerts from it.
func WithAlerts(e *alerts.Engine) Option {
	return func(h *Handler) { h.alerts = e }
}

// WithHistory records served predictions in st and serves them from
// GET /api/v1/predictions.
func WithHistory(st *store.Store) Option {
	return func(h *Handler) { h.history = st }
}

// Feed streams served predictions to live subscribers.
type Feed interface {
	http.Handler
	Publish(types.PredictionRecord)
}

// WithFeed publishes every served prediction to f and mounts it at
// /ws/predictions.
func WithFeed(f Feed) Option {
	return func(h *Handler) { h.feed = f }
}

// New creates the API handler, registers all routes and wraps them in the
// request-ID, CORS and auth middleware configured by cfg.
func New(pipelines *predict.Holder, m *metrics.Metrics, cfg config.ServerConfig, opts ...Option) http.Handler {
	h := &Handler{
		pipelines: pipelines,
		metrics:   m,
		validate:  newValidator(),
		mux:       http.NewServeMux(),
	}
	for _, o := range opts {
		o(h)
	}

	h.mux.HandleFunc("/api/v1/predict", h.predict)
	h.mux.HandleFunc("/predict", h.predict)
	h.mux.HandleFunc("/api/v1/predictions", h.listPredictions)
	h.mux.HandleFunc("/api/v1/predictions/{id}", h.getPrediction)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/health", h.health)
	h.mux.Handle("/metrics", m.Handler())
	if h.feed != nil {
		h.mux.Handle("/ws/predictions", h.feed)
	}

	guard := auth.APIKey(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key(),
		"/api/v1/health", "/health", "/metrics")

	return requestID(cors(cfg.CORS.AllowedOrigins)(guard(h.mux)))
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, r, http.StatusMethodNotAllowed, types.ErrorResponse{Error: CodeMethodNotAllowed})
		return
	}
	jsonResp(w, http.StatusOK, types.HealthResponse{Status: "ok"})
}

// predict handles POST /api/v1/predict.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, r, http.StatusMethodNotAllowed, types.ErrorResponse{Error: CodeMethodNotAllowed})
		return
	}

	reading, rerr := decodeReading(h.validate, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if rerr != nil {
		h.metrics.ObserveError(metrics.ReasonInvalidRequest)
		jsonErr(w, r, http.StatusBadRequest, types.ErrorResponse{
			Error:  rerr.Code,
			Detail: rerr.Detail,
			Fields: rerr.Fields,
		})
		return
	}

	p := h.pipelines.Current()
	if p == nil {
		h.metrics.ObserveError(metrics.ReasonInternal)
		jsonErr(w, r, http.StatusServiceUnavailable, types.ErrorResponse{Error: CodeModelUnavailable})
		return
	}

	start := time.Now()
	res, err := p.Predict(reading)
	if err != nil {
		if errors.Is(err, predict.ErrComputationAnomaly) {
			h.metrics.ObserveError(metrics.ReasonAnomaly)
			jsonErr(w, r, http.StatusUnprocessableEntity, types.ErrorResponse{Error: CodeAnomaly, Detail: err.Error()})
			return
		}
		slog.Error("api: prediction failed", "request_id", requestIDFrom(r.Context()), "err", err)
		h.metrics.ObserveError(metrics.ReasonInternal)
		jsonErr(w, r, http.StatusInternalServerError, types.ErrorResponse{Error: CodeInternal})
		return
	}
	h.metrics.ObservePrediction(res.Band, res.Probability, time.Since(start))
	id := requestIDFrom(r.Context())
	if h.history != nil {
		h.history.Put(id, reading, *res)
	}
	if h.feed != nil {
		h.feed.Publish(toRecord(store.Entry{ID: id, Reading: reading, Result: *res, StoredAt: time.Now().UTC()}))
	}
	if h.alerts != nil {
		h.alerts.Evaluate(res, id)
	}

	slog.Debug("api: prediction served",
		"request_id", id,
		"probability", res.Probability,
		"risk_level", res.Band,
		"recommendations", len(res.Recommendations),
	)
	jsonResp(w, http.StatusOK, ToResponse(res))
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, r *http.Request, code int, body types.ErrorResponse) {
	body.RequestID = requestIDFrom(r.Context())
	jsonResp(w, code, body)
}

// ToResponse maps a pipeline result to its JSON representation.
// Recommendations is never nil so it encodes as [] rather than null.
func ToResponse(res *predict.Result) types.PredictResponse {
	recs := make([]types.Recommendation, 0, len(res.Recommendations))
	for _, rec := range res.Recommendations {
		recs = append(recs, toRecommendation(rec))
	}
	return types.PredictResponse{
		FailureProbability: res.Probability,
		RiskLevel:          string(res.Band),
		Recommendations:    recs,
	}
}

func toRecommendation(r recommend.Recommendation) types.Recommendation {
	return types.Recommendation{
		ID:          r.ID,
		Title:       r.Title,
		Severity:    string(r.Severity),
		Description: r.Description,
	}
}
