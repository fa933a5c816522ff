// Package api implements the HTTP API for wearguard.
//
// New(holder, metrics, cfg, opts...) returns an http.Handler that serves:
//
//	POST /api/v1/predict           score a sensor reading (PredictRequest -> PredictResponse)
//	POST /predict                  alias of /api/v1/predict
//	GET  /api/v1/predictions       recent predictions, newest first (?limit=N)
//	GET  /api/v1/predictions/{id}  one prediction by request ID
//	GET  /api/v1/alerts            alerts raised in the past hour
//	GET  /api/v1/health            liveness: {"status":"ok"}
//	GET  /health                   alias of /api/v1/health
//	GET  /metrics                  Prometheus exposition
//	GET  /ws/predictions           live feed, when WithFeed is given
//
// Error mapping for /predict:
//   - 400 invalid_json / invalid_request (missing fields listed in "fields")
//   - 422 computation_anomaly (engineered features not finite, e.g. zero rpm × torque)
//   - 503 model_unavailable (no pipeline loaded)
//   - 500 internal
//
// Every response carries an X-Request-ID header; it is also the key for
// prediction lookups. CORS is applied for the configured origins and API-key
// auth (package auth) guards everything except health and metrics.
//
// JSON types are defined in pkg/types. No external HTTP framework is used.
package api
