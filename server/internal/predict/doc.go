// Package predict composes the failure pipeline:
//
//	Reading → features.Build → finite check → Scaler → Classifier
//	        → risk.BandOf → recommend.Recommend (optional)
//
// A Pipeline holds the loaded scaler and classifier and is never mutated
// after construction, so one value serves any number of concurrent requests.
// Holder publishes the current Pipeline so a config reload can swap in new
// artifacts without a request ever seeing a half-loaded model.
//
// A reading whose engineered features are not finite (rpm × torque == 0
// makes temp_power ±Inf or NaN) is rejected with ErrComputationAnomaly
// instead of being passed to the model.
package predict
