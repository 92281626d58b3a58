// Package ml loads and evaluates the trained irrigation regressor. The
// model is treated as an opaque artifact: callers depend only on the
// 10-feature input contract, never on the tree structure.
package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/zamcrop/irrigation-engine/pkg/apperrors"
	"github.com/zamcrop/irrigation-engine/pkg/models"
)

// Regressor converts a feature vector into a raw water-amount estimate
// (liters per m²) and a model-reported confidence in [0,1].
type Regressor interface {
	Predict(fv models.FeatureVector) (amount, confidence float64, err error)
	Version() string
}

// node is one decision node in a tree. A negative Feature marks a leaf, in
// which case Value holds the tree's output.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// evaluate walks the tree for the given feature values. The step budget
// guards against a malformed artifact with a cycle.
func (t *tree) evaluate(features []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", idx)
		}
		n := t.Nodes[idx]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(features) {
			return 0, fmt.Errorf("node references feature %d, vector has %d", n.Feature, len(features))
		}
		if features[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return 0, fmt.Errorf("tree walk exceeded %d steps", len(t.Nodes))
}

// artifact is the on-disk JSON format of the trained model.
type artifact struct {
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	Trees        []tree   `json:"trees"`
}

// Forest is a random-forest regressor restored from an artifact file.
// Safe for concurrent use: inference is read-only.
type Forest struct {
	version string
	trees   []tree
}

// Load restores the regressor from the JSON artifact at path. Any failure
// wraps apperrors.ErrModelUnavailable: a service that cannot load its model
// must refuse to start rather than degrade silently.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrModelUnavailable, path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", apperrors.ErrModelUnavailable, path, err)
	}

	if len(art.Trees) == 0 {
		return nil, fmt.Errorf("%w: artifact %s contains no trees", apperrors.ErrModelUnavailable, path)
	}
	if len(art.FeatureNames) != len(models.FeatureNames) {
		return nil, fmt.Errorf("%w: artifact expects %d features, engine provides %d",
			apperrors.ErrModelUnavailable, len(art.FeatureNames), len(models.FeatureNames))
	}
	for i, name := range art.FeatureNames {
		if name != models.FeatureNames[i] {
			return nil, fmt.Errorf("%w: artifact feature %d is %q, engine contract says %q",
				apperrors.ErrModelUnavailable, i, name, models.FeatureNames[i])
		}
	}

	return &Forest{version: art.Version, trees: art.Trees}, nil
}

// Version returns the artifact's model version string.
func (f *Forest) Version() string {
	return f.version
}

// Predict evaluates every tree and aggregates. The ensemble mean is the
// water amount; confidence reflects tree agreement, so a tight ensemble
// scores near 1 and a scattered one lower.
func (f *Forest) Predict(fv models.FeatureVector) (float64, float64, error) {
	features := fv.Values()
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, &apperrors.PredictionError{
				Cause: fmt.Errorf("feature %s is not finite", models.FeatureNames[i]),
			}
		}
	}

	outputs := make([]float64, len(f.trees))
	for i := range f.trees {
		out, err := f.trees[i].evaluate(features)
		if err != nil {
			return 0, 0, &apperrors.PredictionError{Cause: fmt.Errorf("tree %d: %w", i, err)}
		}
		outputs[i] = out
	}

	mean := stat.Mean(outputs, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, 0, &apperrors.PredictionError{Cause: fmt.Errorf("ensemble produced non-finite output")}
	}

	amount := math.Max(0, mean)
	confidence := 1.0
	if len(outputs) > 1 {
		sd := stat.StdDev(outputs, nil)
		confidence = 1.0 - sd/(math.Abs(mean)+1.0)
		confidence = math.Max(0, math.Min(1, confidence))
	}

	return amount, confidence, nil
}

var _ Regressor = (*Forest)(nil)
