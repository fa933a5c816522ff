package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marocz/wearguard/server/internal/risk"
)

// Metric names, shared with the scrape package that reads them back.
const (
	NamePredictions   = "wearguard_predictions_total"
	NameErrors        = "wearguard_prediction_errors_total"
	NameProbability   = "wearguard_failure_probability"
	NameDuration      = "wearguard_prediction_duration_seconds"
	NameModelReloads  = "wearguard_model_reloads_total"
	LabelRiskLevel    = "risk_level"
	LabelReason       = "reason"
	LabelReloadResult = "result"
)

// Error reasons.
const (
	ReasonInvalidRequest = "invalid_request"
	ReasonAnomaly        = "computation_anomaly"
	ReasonInternal       = "internal"
)

// Reload results.
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
)

// Metrics is a self-contained registry with the service's collectors.
// It is safe for concurrent use.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	probability prometheus.Histogram
	duration    prometheus.Histogram
	reloads     *prometheus.CounterVec
}

// New builds the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NamePredictions,
			Help: "Predictions served, by risk level.",
		}, []string{LabelRiskLevel}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NameErrors,
			Help: "Prediction requests that failed, by reason.",
		}, []string{LabelReason}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    NameProbability,
			Help:    "Distribution of predicted failure probabilities.",
			Buckets: []float64{0.01, 0.05, risk.ThresholdYellow, 0.2, 0.3, 0.4, risk.ThresholdRed, 0.75, 0.9, 1},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    NameDuration,
			Help:    "Time spent in the prediction pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NameModelReloads,
			Help: "Model artifact reload attempts, by result.",
		}, []string{LabelReloadResult}),
	}

	m.registry.MustRegister(
		m.predictions, m.errors, m.probability, m.duration, m.reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Pre-create the label values so every series is exported from zero.
	for _, b := range risk.Bands {
		m.predictions.WithLabelValues(string(b))
	}
	for _, r := range []string{ReasonInvalidRequest, ReasonAnomaly, ReasonInternal} {
		m.errors.WithLabelValues(r)
	}
	for _, r := range []string{ReloadSuccess, ReloadFailure} {
		m.reloads.WithLabelValues(r)
	}
	return m
}

// ObservePrediction records one successful prediction.
func (m *Metrics) ObservePrediction(band risk.Band, p float64, elapsed time.Duration) {
	m.predictions.WithLabelValues(string(band)).Inc()
	m.probability.Observe(p)
	m.duration.Observe(elapsed.Seconds())
}

// ObserveError records one failed request.
func (m *Metrics) ObserveError(reason string) {
	m.errors.WithLabelValues(reason).Inc()
}

// ObserveReload records a model reload attempt.
func (m *Metrics) ObserveReload(ok bool) {
	result := ReloadSuccess
	if !ok {
		result = ReloadFailure
	}
	m.reloads.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
