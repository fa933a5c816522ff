// Package model wraps the two trained artifacts the failure pipeline consumes:
// a fitted feature scaler and a probabilistic binary classifier.
//
// Artifacts are YAML (or JSON) documents exported by the training job. Each
// declares a kind and the ordered feature columns it was fitted on:
//
//	kind: standard | minmax | identity                         (scaler)
//	kind: logistic | gradient_boosting | constant              (classifier)
//	features: [air_temperature_k, process_temperature_k, ...]
//
// A gradient_boosting artifact carries no trees of its own. Its model_file
// names the pickled scikit-learn GradientBoostingClassifier, which is read
// and evaluated by github.com/dmitryikh/leaves.
//
// LoadScaler and LoadClassifier fail with ErrModelUnavailable when a file is
// missing, malformed, or was fitted on a different column list than
// features.Columns. Loaded values are immutable and safe for concurrent use.
//
// FailureProbability extracts P(class 1) from a classifier, collapsing
// single-class models to a hard 0 or 1.
package model
