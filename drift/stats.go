package drift

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// spreadEpsilon is the smallest spread treated as non-zero. Identical
// samples can leave rounding residue in a computed standard deviation.
const spreadEpsilon = 1e-9

// minResultantLength keeps circular std finite when bearings cancel out
const minResultantLength = 1e-12

// maxResultantLength is the resultant length treated as perfect agreement
const maxResultantLength = 1 - 1e-12

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// WrapAngle wraps radians to [-pi, pi]
func WrapAngle(rad float64) float64 {
	return math.Atan2(math.Sin(rad), math.Cos(rad))
}

// AngularDifference returns the signed smallest difference a-b in degrees,
// wrapped to [-180, 180]. 1 and 359 are 2 degrees apart.
func AngularDifference(a, b float64) float64 {
	return RadToDeg(WrapAngle(DegToRad(a - b)))
}

// finite drops NaN and Inf values
func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// popMeanStd returns the population mean and standard deviation of the finite
// values in x. Both are NaN when x has no finite values.
func popMeanStd(x []float64) (mean, std float64) {
	x = finite(x)
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(x, nil)
}

// CircularMean returns the mean direction of angles in radians
func CircularMean(rad []float64) float64 {
	rad = finite(rad)
	if len(rad) == 0 {
		return math.NaN()
	}
	return stat.CircularMean(rad, nil)
}

// CircularStd returns the circular standard deviation sqrt(-2 ln R) of
// angles in radians, where R is the mean resultant length.
func CircularStd(rad []float64) float64 {
	rad = finite(rad)
	if len(rad) == 0 {
		return math.NaN()
	}
	var s, c float64
	for _, a := range rad {
		s += math.Sin(a)
		c += math.Cos(a)
	}
	n := float64(len(rad))
	r := math.Hypot(s/n, c/n)
	if r >= maxResultantLength {
		return 0
	}
	r = math.Max(minResultantLength, r)
	return math.Sqrt(-2 * math.Log(r))
}

// zeroSpread reports a spread that cannot support a z-score
func zeroSpread(std float64) bool {
	return math.IsNaN(std) || std <= spreadEpsilon
}
