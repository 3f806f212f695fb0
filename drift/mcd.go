package drift

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FastMCD tuning
const (
	mcdRandomStarts  = 10   // random (p+1)-subsets tried besides the median start
	mcdInitialCSteps = 2    // C-steps applied to every start
	mcdRefineBest    = 3    // best starts iterated to convergence
	mcdMaxCSteps     = 30   // convergence cap per refined start
	mcdReweightQuant = 0.975
	mcdMaxCondition  = 1e12 // condition number above which a covariance is singular
)

// RobustEstimate is a minimum covariance determinant estimate of location and
// scatter
type RobustEstimate struct {
	Location   *mat.VecDense
	Covariance *mat.SymDense
	Support    []int // rows used for the final estimate, ascending

	chol   mat.Cholesky
	logDet float64
}

// Dim returns the number of features
func (e *RobustEstimate) Dim() int {
	return e.Location.Len()
}

// MahalanobisSq returns the squared Mahalanobis distance of x to the robust
// center under the robust covariance
func (e *RobustEstimate) MahalanobisSq(x []float64) float64 {
	if len(x) != e.Dim() {
		return math.NaN()
	}
	diff := mat.NewVecDense(len(x), append([]float64(nil), x...))
	diff.SubVec(diff, e.Location)

	var sol mat.VecDense
	if err := e.chol.SolveVecTo(&sol, diff); err != nil {
		return math.NaN()
	}
	return mat.Dot(diff, &sol)
}

// FitMCD fits a FastMCD robust covariance to data (n rows, p features). The
// support size is h = (n+p+1)/2. The raw estimate is consistency corrected and
// reweighted at the 0.975 chi-square quantile. Fewer than p+1 rows or a
// singular scatter return an error wrapping ErrSingular.
func FitMCD(data [][]float64) (*RobustEstimate, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrSingular)
	}
	p := len(data[0])
	if n < p+1 {
		return nil, fmt.Errorf("%w: %d samples for %d features", ErrSingular, n, p)
	}

	h := (n + p + 1) / 2
	var raw *RobustEstimate
	if h >= n {
		est, err := estimateFrom(data, allRows(n))
		if err != nil {
			return nil, err
		}
		raw = est
	} else {
		est, err := searchMCD(data, h)
		if err != nil {
			return nil, err
		}
		raw = est
	}

	corrected, err := correctConsistency(data, raw)
	if err != nil {
		return raw, nil
	}
	return reweight(data, corrected), nil
}

// searchMCD runs C-steps from a median-based start and several deterministic
// random starts, returning the support with the smallest determinant
func searchMCD(data [][]float64, h int) (*RobustEstimate, error) {
	n, p := len(data), len(data[0])
	rng := rand.New(rand.NewPCG(uint64(n), uint64(p)))

	var starts []*RobustEstimate
	if est, err := estimateFrom(data, nearestToMedian(data, h)); err == nil {
		starts = append(starts, est)
	}
	for s := 0; s < mcdRandomStarts; s++ {
		perm := rng.Perm(n)
		// Grow the elemental subset until its scatter is invertible
		for size := p + 1; size <= h; size++ {
			subset := append([]int(nil), perm[:size]...)
			sort.Ints(subset)
			if est, err := estimateFrom(data, subset); err == nil {
				starts = append(starts, est)
				break
			}
		}
	}

	var candidates []*RobustEstimate
	for _, est := range starts {
		cur := est
		for step := 0; step < mcdInitialCSteps; step++ {
			next, err := cStep(data, cur, h)
			if err != nil {
				break
			}
			cur = next
		}
		candidates = append(candidates, cur)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no invertible subset of %d samples", ErrSingular, n)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].logDet < candidates[j].logDet
	})
	if len(candidates) > mcdRefineBest {
		candidates = candidates[:mcdRefineBest]
	}

	var best *RobustEstimate
	for _, cur := range candidates {
		for step := 0; step < mcdMaxCSteps; step++ {
			next, err := cStep(data, cur, h)
			if err != nil || next.logDet >= cur.logDet || sameRows(next.Support, cur.Support) {
				break
			}
			cur = next
		}
		if best == nil || cur.logDet < best.logDet {
			best = cur
		}
	}
	return best, nil
}

// cStep keeps the h rows closest to the current estimate and refits
func cStep(data [][]float64, est *RobustEstimate, h int) (*RobustEstimate, error) {
	d2 := distancesSq(data, est)
	order := allRows(len(data))
	sort.SliceStable(order, func(i, j int) bool { return d2[order[i]] < d2[order[j]] })
	subset := append([]int(nil), order[:h]...)
	sort.Ints(subset)
	return estimateFrom(data, subset)
}

// correctConsistency rescales the raw scatter so that it is unbiased at the
// normal model: factor = median(d2) / chi2_p.Quantile(0.5)
func correctConsistency(data [][]float64, raw *RobustEstimate) (*RobustEstimate, error) {
	p := raw.Dim()
	d2 := distancesSq(data, raw)
	sort.Float64s(d2)
	med := stat.Quantile(0.5, stat.Empirical, d2, nil)
	factor := med / distuv.ChiSquared{K: float64(p)}.Quantile(0.5)
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: degenerate consistency factor %v", ErrSingular, factor)
	}

	scaled := mat.NewSymDense(p, nil)
	scaled.ScaleSym(factor, raw.Covariance)
	return newEstimate(raw.Location, scaled, raw.Support)
}

// reweight refits on the rows inside the 0.975 chi-square ellipsoid, keeping
// est when the reweighted scatter is singular
func reweight(data [][]float64, est *RobustEstimate) *RobustEstimate {
	p := est.Dim()
	cutoff := distuv.ChiSquared{K: float64(p)}.Quantile(mcdReweightQuant)
	d2 := distancesSq(data, est)

	var keep []int
	for i, d := range d2 {
		if d <= cutoff {
			keep = append(keep, i)
		}
	}
	if len(keep) < p+1 {
		return est
	}
	if rw, err := estimateFrom(data, keep); err == nil {
		return rw
	}
	return est
}

// estimateFrom computes the sample mean and (biased) covariance of rows
func estimateFrom(data [][]float64, rows []int) (*RobustEstimate, error) {
	p := len(data[0])
	m := float64(len(rows))

	loc := make([]float64, p)
	for _, r := range rows {
		for j := 0; j < p; j++ {
			loc[j] += data[r][j]
		}
	}
	for j := range loc {
		loc[j] /= m
	}

	cov := mat.NewSymDense(p, nil)
	for _, r := range rows {
		for a := 0; a < p; a++ {
			da := data[r][a] - loc[a]
			for b := a; b < p; b++ {
				cov.SetSym(a, b, cov.At(a, b)+da*(data[r][b]-loc[b]))
			}
		}
	}
	cov.ScaleSym(1/m, cov)

	return newEstimate(mat.NewVecDense(p, loc), cov, rows)
}

func newEstimate(loc *mat.VecDense, cov *mat.SymDense, support []int) (*RobustEstimate, error) {
	est := &RobustEstimate{
		Location:   loc,
		Covariance: cov,
		Support:    support,
	}
	if ok := est.chol.Factorize(cov); !ok {
		return nil, fmt.Errorf("%w: covariance is not positive definite", ErrSingular)
	}
	if cond := est.chol.Cond(); math.IsInf(cond, 0) || cond > mcdMaxCondition {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingular, cond)
	}
	est.logDet = est.chol.LogDet()
	return est, nil
}

func distancesSq(data [][]float64, est *RobustEstimate) []float64 {
	d2 := make([]float64, len(data))
	for i, row := range data {
		d2[i] = est.MahalanobisSq(row)
	}
	return d2
}

// nearestToMedian returns the h rows closest to the coordinate-wise median
func nearestToMedian(data [][]float64, h int) []int {
	p := len(data[0])
	med := make([]float64, p)
	col := make([]float64, len(data))
	for j := 0; j < p; j++ {
		for i, row := range data {
			col[i] = row[j]
		}
		sort.Float64s(col)
		med[j] = stat.Quantile(0.5, stat.Empirical, col, nil)
	}

	dist := make([]float64, len(data))
	for i, row := range data {
		var s float64
		for j, v := range row {
			s += (v - med[j]) * (v - med[j])
		}
		dist[i] = s
	}

	order := allRows(len(data))
	sort.SliceStable(order, func(i, j int) bool { return dist[order[i]] < dist[order[j]] })
	subset := append([]int(nil), order[:h]...)
	sort.Ints(subset)
	return subset
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func sameRows(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
