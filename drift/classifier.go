package drift

import (
	"fmt"
	"math"
)

// Verdict is the result of classifying one observation against its neighborhood
type Verdict struct {
	Category      Category
	NeighborCount int
	DistanceZ     float64
	BearingZ      float64
	MahalanobisSq float64
}

func newVerdict(neighbors int) Verdict {
	return Verdict{
		NeighborCount: neighbors,
		DistanceZ:     math.NaN(),
		BearingZ:      math.NaN(),
		MahalanobisSq: math.NaN(),
	}
}

// apply writes the verdict into the observation
func (v Verdict) apply(o *Observation) {
	o.Category = v.Category
	o.NeighborCount = v.NeighborCount
	o.DistanceZ = v.DistanceZ
	o.BearingZ = v.BearingZ
	o.MahalanobisSq = v.MahalanobisSq
}

// Classifier labels an observation given its neighborhood. neighbors never
// contains target itself.
type Classifier interface {
	Classify(target *Observation, neighbors []*Observation) Verdict
	Method() Method
}

// NewClassifier builds the classifier selected by cfg.Type
func NewClassifier(cfg OutlierConfig) (Classifier, error) {
	switch cfg.Type {
	case MethodZScore:
		return NewZScoreClassifier(cfg.ZScoreDistanceThreshold, cfg.ZScoreBearingThreshold, cfg.MinNeighbors), nil
	case MethodMahalanobis:
		return NewMahalanobisClassifier(cfg.MahalanobisAlpha, cfg.MinNeighbors), nil
	default:
		return nil, fmt.Errorf("%w: unknown outlier type %q", ErrConfig, cfg.Type)
	}
}

// confident applies the min_neighbors rule shared by both classifiers
func confident(neighbors, minNeighbors int) bool {
	return neighbors >= minNeighbors
}
