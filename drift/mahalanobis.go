package drift

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// MahalanobisFeatures is the feature count: U, V (km/day), sin and cos of bearing
const MahalanobisFeatures = 4

// MahalanobisClassifier flags observations whose robust Mahalanobis distance
// to the neighborhood exceeds a chi-square critical value. It does not
// separate distance from bearing, so outliers are always type 3.
type MahalanobisClassifier struct {
	Alpha        float64
	MinNeighbors int

	critical float64
}

// NewMahalanobisClassifier creates a classifier whose squared-distance
// threshold is the chi-square(4) quantile at upper tail probability alpha
func NewMahalanobisClassifier(alpha float64, minNeighbors int) *MahalanobisClassifier {
	return &MahalanobisClassifier{
		Alpha:        alpha,
		MinNeighbors: minNeighbors,
		critical:     ChiSquareCritical(alpha, MahalanobisFeatures),
	}
}

// ChiSquareCritical returns the value exceeded with probability alpha by a
// chi-square variable with df degrees of freedom
func ChiSquareCritical(alpha float64, df int) float64 {
	return distuv.ChiSquared{K: float64(df)}.Quantile(1 - alpha)
}

// Method returns MethodMahalanobis
func (m *MahalanobisClassifier) Method() Method { return MethodMahalanobis }

// Critical returns the squared-distance threshold
func (m *MahalanobisClassifier) Critical() float64 { return m.critical }

// Classify scores target against a robust fit of its neighbors' features.
// Neighborhoods too small or too degenerate for a covariance fit yield "00".
func (m *MahalanobisClassifier) Classify(target *Observation, neighbors []*Observation) Verdict {
	v := newVerdict(len(neighbors))
	v.Category = Category00
	if len(neighbors) < MahalanobisFeatures+1 {
		return v
	}

	data := make([][]float64, len(neighbors))
	for i, n := range neighbors {
		data[i] = FeatureVector(n)
	}
	x := FeatureVector(target)
	standardize(data, x)

	est, err := FitMCD(data)
	if err != nil {
		return v
	}
	d2 := est.MahalanobisSq(x)
	if math.IsNaN(d2) {
		return v
	}

	v.MahalanobisSq = d2
	t := TypeInlier
	if d2 > m.critical {
		t = TypeBoth
	}
	v.Category = NewCategory(t, confident(len(neighbors), m.MinNeighbors))
	return v
}

// FeatureVector returns (U km/day, V km/day, sin bearing, cos bearing)
func FeatureVector(o *Observation) []float64 {
	rad := DegToRad(o.BearingDeg)
	return []float64{o.UKmDay, o.VKmDay, math.Sin(rad), math.Cos(rad)}
}

// standardize scales each column of data, and x with the same parameters, to
// zero mean and unit variance. Columns without spread keep unit scale.
func standardize(data [][]float64, x []float64) {
	col := make([]float64, len(data))
	for j := range x {
		for i, row := range data {
			col[i] = row[j]
		}
		mean, std := popMeanStd(col)
		if zeroSpread(std) {
			std = 1
		}
		for _, row := range data {
			row[j] = (row[j] - mean) / std
		}
		x[j] = (x[j] - mean) / std
	}
}
