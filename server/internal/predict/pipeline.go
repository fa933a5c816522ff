package predict

import (
	"errors"
	"fmt"
	"math"

	"github.com/marocz/wearguard/server/internal/features"
	"github.com/marocz/wearguard/server/internal/model"
	"github.com/marocz/wearguard/server/internal/recommend"
	"github.com/marocz/wearguard/server/internal/risk"
)

// ErrComputationAnomaly marks a request whose intermediate values are not
// finite. It is an input problem, not a model failure.
var ErrComputationAnomaly = errors.New("computation anomaly")

// Result is the outcome of one prediction.
type Result struct {
	Probability     float64
	Band            risk.Band
	Recommendations []recommend.Recommendation
}

// Pipeline runs readings through the scaler and classifier.
type Pipeline struct {
	scaler          model.Scaler
	classifier      model.Classifier
	recommendations bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecommendations toggles the recommendation stage. It is on by default;
// when off, Result.Recommendations is empty.
func WithRecommendations(on bool) Option {
	return func(p *Pipeline) { p.recommendations = on }
}

// New returns a Pipeline using the given scaler and classifier.
func New(s model.Scaler, c model.Classifier, opts ...Option) *Pipeline {
	p := &Pipeline{scaler: s, classifier: c, recommendations: true}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Open loads both artifacts from disk and returns a Pipeline. Either load
// failing returns an error wrapping model.ErrModelUnavailable.
func Open(scalerPath, classifierPath string, opts ...Option) (*Pipeline, error) {
	s, err := model.LoadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	c, err := model.LoadClassifier(classifierPath)
	if err != nil {
		return nil, err
	}
	return New(s, c, opts...), nil
}

// Predict scores one reading.
func (p *Pipeline) Predict(r features.Reading) (*Result, error) {
	x := features.Build(r)
	if col, ok := x.Finite(); !ok {
		return nil, fmt.Errorf("%w: feature %s is %v", ErrComputationAnomaly, col, x.Map()[col])
	}

	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("predict: scale: %w", err)
	}
	if col, ok := scaled.Finite(); !ok {
		return nil, fmt.Errorf("%w: scaled feature %s is not finite", ErrComputationAnomaly, col)
	}

	prob, err := model.FailureProbability(p.classifier, scaled)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return nil, fmt.Errorf("%w: failure probability %v outside [0, 1]", ErrComputationAnomaly, prob)
	}

	res := &Result{
		Probability: prob,
		Band:        risk.BandOf(prob),
	}
	if p.recommendations {
		res.Recommendations = recommend.Recommend(recommend.FromReading(r), prob)
	}
	return res, nil
}
