package model

import (
	"errors"
	"fmt"

	"github.com/marocz/wearguard/server/internal/features"
)

// FailureClass is the class label the classifier uses for a failure.
const FailureClass = 1

// ErrModelUnavailable is returned when a scaler or classifier artifact cannot
// be loaded. It is a startup condition, never a per-request one.
var ErrModelUnavailable = errors.New("model unavailable")

// Scaler normalises a feature vector column by column.
type Scaler interface {
	Transform(x features.Vector) (features.Vector, error)
}

// Classifier is a trained probabilistic classifier.
type Classifier interface {
	// Classes returns the class labels the model was trained on, in the
	// same order as the columns of PredictProba's row.
	Classes() []int

	// PredictProba returns one probability per class for x.
	PredictProba(x features.Vector) ([]float64, error)
}

// FailureProbability returns the probability the classifier assigns to
// FailureClass for the scaled vector x.
//
// A classifier that knows a single class yields 1 if that class is
// FailureClass and 0 otherwise, without evaluating the model. When the class
// list has no FailureClass the last probability column is used.
func FailureProbability(c Classifier, x features.Vector) (float64, error) {
	classes := c.Classes()
	switch len(classes) {
	case 0:
		return 0, errors.New("model: classifier reports no classes")
	case 1:
		if classes[0] == FailureClass {
			return 1, nil
		}
		return 0, nil
	}

	row, err := c.PredictProba(x)
	if err != nil {
		return 0, fmt.Errorf("model: predict: %w", err)
	}
	if len(row) != len(classes) {
		return 0, fmt.Errorf("model: probability row has %d columns for %d classes", len(row), len(classes))
	}

	idx := len(row) - 1
	for i, label := range classes {
		if label == FailureClass {
			idx = i
			break
		}
	}
	return row[idx], nil
}
