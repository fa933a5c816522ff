package model

import (
	"fmt"
	"math"

	"github.com/marocz/wearguard/server/internal/features"
)

// Logistic is a binary logistic regression.
type Logistic struct {
	Labels    [2]int
	Coef      features.Vector
	Intercept float64
}

// Classes returns the two class labels.
func (m *Logistic) Classes() []int { return m.Labels[:] }

// PredictProba returns [P(Labels[0]), P(Labels[1])].
func (m *Logistic) PredictProba(x features.Vector) ([]float64, error) {
	z := m.Intercept
	for i := range x {
		z += m.Coef[i] * x[i]
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

// ensemble is the part of *leaves.Ensemble the classifier uses.
type ensemble interface {
	NFeatures() int
	NOutputGroups() int
	Predict(fvals []float64, nEstimators int, predictions []float64) error
}

// GradientBoosting is a fitted scikit-learn GradientBoostingClassifier,
// evaluated by leaves with its logistic transformation applied, so the
// single output is P(Labels[1]).
type GradientBoosting struct {
	Labels [2]int
	model  ensemble
}

func newGradientBoosting(labels [2]int, m ensemble) (*GradientBoosting, error) {
	if n := m.NFeatures(); n != features.Size {
		return nil, fmt.Errorf("ensemble was fitted on %d features, pipeline builds %d", n, features.Size)
	}
	if g := m.NOutputGroups(); g != 1 {
		return nil, fmt.Errorf("ensemble has %d output groups, want a binary classifier", g)
	}
	return &GradientBoosting{Labels: labels, model: m}, nil
}

// Classes returns the two class labels.
func (m *GradientBoosting) Classes() []int { return m.Labels[:] }

// PredictProba returns [P(Labels[0]), P(Labels[1])] using every estimator.
func (m *GradientBoosting) PredictProba(x features.Vector) ([]float64, error) {
	out := make([]float64, 1)
	if err := m.model.Predict(x[:], 0, out); err != nil {
		return nil, fmt.Errorf("gradient boosting: %w", err)
	}
	return []float64{1 - out[0], out[0]}, nil
}

// Constant is a model that only ever saw one class during training.
type Constant struct {
	Label int
}

// Classes returns the single class label.
func (m *Constant) Classes() []int { return []int{m.Label} }

// PredictProba always returns [1].
func (m *Constant) PredictProba(features.Vector) ([]float64, error) {
	return []float64{1}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
