package model

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitryikh/leaves"
	"gopkg.in/yaml.v3"

	"github.com/marocz/wearguard/server/internal/features"
)

// Artifact kinds.
const (
	KindStandard         = "standard"
	KindMinMax           = "minmax"
	KindIdentity         = "identity"
	KindLogistic         = "logistic"
	KindGradientBoosting = "gradient_boosting"
	KindConstant         = "constant"
)

type scalerArtifact struct {
	Kind     string    `yaml:"kind"`
	Features []string  `yaml:"features"`
	Mean     []float64 `yaml:"mean"`
	Scale    []float64 `yaml:"scale"`
	Min      []float64 `yaml:"min"`
}

type classifierArtifact struct {
	Kind      string    `yaml:"kind"`
	Features  []string  `yaml:"features"`
	Classes   []int     `yaml:"classes"`
	Coef      []float64 `yaml:"coef"`
	Intercept float64   `yaml:"intercept"`

	// ModelFile is a pickled GradientBoostingClassifier, relative to the
	// artifact's directory unless absolute.
	ModelFile string `yaml:"model_file"`
}

// LoadScaler reads the scaler artifact at path.
func LoadScaler(path string) (Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler artifact %q: %w", ErrModelUnavailable, path, err)
	}
	s, kind, err := ParseScaler(data)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler artifact %q: %w", ErrModelUnavailable, path, err)
	}
	slog.Info("model: loaded scaler", "path", path, "kind", kind)
	return s, nil
}

// LoadClassifier reads the classifier artifact at path.
func LoadClassifier(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier artifact %q: %w", ErrModelUnavailable, path, err)
	}
	c, kind, err := ParseClassifier(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%w: classifier artifact %q: %w", ErrModelUnavailable, path, err)
	}
	slog.Info("model: loaded classifier", "path", path, "kind", kind, "classes", c.Classes())
	return c, nil
}

// ParseScaler decodes a scaler artifact and returns it with its kind.
func ParseScaler(data []byte) (Scaler, string, error) {
	var a scalerArtifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, "", fmt.Errorf("parse yaml: %w", err)
	}

	switch a.Kind {
	case KindIdentity:
		if err := checkColumns(a.Features, false); err != nil {
			return nil, "", err
		}
		return IdentityScaler{}, a.Kind, nil

	case KindStandard:
		if err := checkColumns(a.Features, true); err != nil {
			return nil, "", err
		}
		mean, err := toVector("mean", a.Mean)
		if err != nil {
			return nil, "", err
		}
		scale, err := toVector("scale", a.Scale)
		if err != nil {
			return nil, "", err
		}
		return StandardScaler{Mean: mean, Scale: scale}, a.Kind, nil

	case KindMinMax:
		if err := checkColumns(a.Features, true); err != nil {
			return nil, "", err
		}
		lo, err := toVector("min", a.Min)
		if err != nil {
			return nil, "", err
		}
		scale, err := toVector("scale", a.Scale)
		if err != nil {
			return nil, "", err
		}
		return MinMaxScaler{Min: lo, Scale: scale}, a.Kind, nil

	case "":
		return nil, "", fmt.Errorf("kind is required")
	default:
		return nil, "", fmt.Errorf("unknown scaler kind %q: want standard|minmax|identity", a.Kind)
	}
}

// ParseClassifier decodes a classifier artifact and returns it with its kind.
// A relative model_file is resolved against dir.
func ParseClassifier(data []byte, dir string) (Classifier, string, error) {
	var a classifierArtifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, "", fmt.Errorf("parse yaml: %w", err)
	}

	switch a.Kind {
	case KindConstant:
		if len(a.Classes) != 1 {
			return nil, "", fmt.Errorf("constant classifier needs exactly 1 class, got %d", len(a.Classes))
		}
		if err := checkColumns(a.Features, false); err != nil {
			return nil, "", err
		}
		return &Constant{Label: a.Classes[0]}, a.Kind, nil

	case KindLogistic:
		labels, err := binaryLabels(a.Classes)
		if err != nil {
			return nil, "", err
		}
		if err := checkColumns(a.Features, true); err != nil {
			return nil, "", err
		}
		coef, err := toVector("coef", a.Coef)
		if err != nil {
			return nil, "", err
		}
		return &Logistic{Labels: labels, Coef: coef, Intercept: a.Intercept}, a.Kind, nil

	case KindGradientBoosting:
		labels, err := binaryLabels(a.Classes)
		if err != nil {
			return nil, "", err
		}
		if err := checkColumns(a.Features, true); err != nil {
			return nil, "", err
		}
		if a.ModelFile == "" {
			return nil, "", fmt.Errorf("gradient_boosting classifier needs model_file")
		}
		file := a.ModelFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		e, err := leaves.SKEnsembleFromFile(file, true)
		if err != nil {
			return nil, "", fmt.Errorf("model_file %q: %w", file, err)
		}
		m, err := newGradientBoosting(labels, e)
		if err != nil {
			return nil, "", fmt.Errorf("model_file %q: %w", file, err)
		}
		return m, a.Kind, nil

	case "":
		return nil, "", fmt.Errorf("kind is required")
	default:
		return nil, "", fmt.Errorf("unknown classifier kind %q: want logistic|gradient_boosting|constant", a.Kind)
	}
}

// checkColumns compares an artifact's declared columns with features.Columns.
// An empty list is accepted only when required is false.
func checkColumns(cols []string, required bool) error {
	if len(cols) == 0 {
		if required {
			return fmt.Errorf("features list is required")
		}
		return nil
	}
	if len(cols) != features.Size {
		return fmt.Errorf("fitted on %d features, pipeline builds %d", len(cols), features.Size)
	}
	for i, c := range cols {
		if c != features.Columns[i] {
			return fmt.Errorf("feature %d is %q, pipeline builds %q", i, c, features.Columns[i])
		}
	}
	return nil
}

func toVector(name string, xs []float64) (features.Vector, error) {
	var v features.Vector
	if len(xs) != features.Size {
		return v, fmt.Errorf("%s has %d values, want %d", name, len(xs), features.Size)
	}
	copy(v[:], xs)
	return v, nil
}

func binaryLabels(classes []int) ([2]int, error) {
	if len(classes) != 2 {
		return [2]int{}, fmt.Errorf("binary classifier needs 2 classes, got %d", len(classes))
	}
	return [2]int{classes[0], classes[1]}, nil
}
