// Package metrics owns the Prometheus collectors for the prediction service
// and serves them in the text exposition format on /metrics.
//
// Exposed series:
//
//	wearguard_predictions_total{risk_level}        counter
//	wearguard_prediction_errors_total{reason}      counter
//	wearguard_failure_probability                  histogram
//	wearguard_prediction_duration_seconds          histogram
//	wearguard_model_reloads_total{result}          counter
package metrics
