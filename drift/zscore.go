package drift

import "math"

// ZScoreClassifier flags distance and bearing outliers independently by their
// z-score against the neighborhood. Bearing statistics are circular.
type ZScoreClassifier struct {
	DistanceThreshold float64
	BearingThreshold  float64
	MinNeighbors      int
}

// NewZScoreClassifier creates a z-score classifier
func NewZScoreClassifier(distanceThreshold, bearingThreshold float64, minNeighbors int) *ZScoreClassifier {
	return &ZScoreClassifier{
		DistanceThreshold: distanceThreshold,
		BearingThreshold:  bearingThreshold,
		MinNeighbors:      minNeighbors,
	}
}

// Method returns MethodZScore
func (z *ZScoreClassifier) Method() Method { return MethodZScore }

// Classify scores target against neighbors. A metric with zero spread in the
// neighborhood never flags the target.
func (z *ZScoreClassifier) Classify(target *Observation, neighbors []*Observation) Verdict {
	v := newVerdict(len(neighbors))
	if len(neighbors) == 0 {
		v.Category = Category00
		return v
	}

	v.DistanceZ = DistanceZScore(target.DistanceKm, neighborDistances(neighbors))
	v.BearingZ = BearingZScore(target.BearingDeg, neighborBearings(neighbors))

	distFlag := !math.IsNaN(v.DistanceZ) && math.Abs(v.DistanceZ) > z.DistanceThreshold
	bearFlag := !math.IsNaN(v.BearingZ) && math.Abs(v.BearingZ) > z.BearingThreshold

	v.Category = NewCategory(combineTypes(distFlag, bearFlag), confident(len(neighbors), z.MinNeighbors))
	return v
}

// DistanceZScore returns (d - mean) / std over the neighborhood distances, or
// NaN when the neighborhood has no spread
func DistanceZScore(d float64, neighborhood []float64) float64 {
	mean, std := popMeanStd(neighborhood)
	if zeroSpread(std) {
		return math.NaN()
	}
	return (d - mean) / std
}

// BearingZScore returns the absolute circular z-score of bearing b (degrees)
// against the neighborhood bearings, or NaN when they have no spread. The
// difference from the circular mean is wrapped to [-180, 180] first.
func BearingZScore(b float64, neighborhood []float64) float64 {
	rad := make([]float64, len(neighborhood))
	for i, nb := range neighborhood {
		rad[i] = DegToRad(nb)
	}
	std := CircularStd(rad)
	if zeroSpread(std) {
		return math.NaN()
	}
	delta := WrapAngle(DegToRad(b) - CircularMean(rad))
	return math.Abs(delta) / std
}

func neighborDistances(neighbors []*Observation) []float64 {
	out := make([]float64, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.DistanceKm
	}
	return out
}

func neighborBearings(neighbors []*Observation) []float64 {
	out := make([]float64, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.BearingDeg
	}
	return out
}
