package drift

import (
	"math"
	"math/rand/v2"
	"testing"
)

// obsAt builds an observation starting at (x, y) meters with the given
// distance and bearing. Velocity follows distance over one day.
func obsAt(file1, file2 string, x, y, distKm, bearing float64) Observation {
	rad := DegToRad(bearing)
	o := Observation{
		File1:      file1,
		File2:      file2,
		X1:         x,
		Y1:         y,
		X2:         x + distKm*MetersPerKm*math.Sin(rad),
		Y2:         y + distKm*MetersPerKm*math.Cos(rad),
		BearingDeg: bearing,
		DistanceKm: distKm,
		UKmDay:     distKm * math.Sin(rad),
		VKmDay:     distKm * math.Cos(rad),
	}
	o.DX = o.X2 - o.X1
	o.DY = o.Y2 - o.Y1
	o.resetDiagnostics()
	return o
}

// table assigns row numbers in order
func table(obs ...Observation) []Observation {
	for i := range obs {
		obs[i].Row = i
	}
	return obs
}

// clusterScene is four tightly grouped distances around 1 km and one 10 km
// outlier in the middle, all heading east. Row 4 is the outlier.
func clusterScene(file1, file2 string) []Observation {
	return []Observation{
		obsAt(file1, file2, 0, 0, 1.0, 90),
		obsAt(file1, file2, 1000, 0, 1.1, 90),
		obsAt(file1, file2, 0, 1000, 0.9, 90),
		obsAt(file1, file2, 1000, 1000, 1.0, 90),
		obsAt(file1, file2, 500, 500, 10.0, 90),
	}
}

// zscoreConfig returns a z-score configuration for clusterScene
func zscoreConfig(threshold float64, iterative bool, maxIterations int) OutlierConfig {
	cfg := OutlierConfig{
		Enabled:                 true,
		Type:                    MethodZScore,
		ZScoreDistanceThreshold: threshold,
		ZScoreBearingThreshold:  threshold,
		MahalanobisAlpha:        DefaultMahalanobisAlpha,
		RadiusKm:                25,
		MinNeighbors:            3,
		Iterative:               iterative,
		MaxIterations:           &maxIterations,
		Workers:                 2,
	}
	return cfg
}

// noisyCluster returns n observations spread over a few kilometers whose
// velocity and bearing vary independently
func noisyCluster(t *testing.T, n int, seed uint64) []Observation {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	obs := make([]Observation, n)
	for i := range obs {
		bearing := 60 + rng.Float64()*60
		o := obsAt("A", "B", rng.Float64()*5000, rng.Float64()*5000, 1, bearing)
		o.UKmDay = 10 + rng.NormFloat64()
		o.VKmDay = 5 + rng.NormFloat64()
		o.DistanceKm = math.Hypot(o.UKmDay, o.VKmDay)
		obs[i] = o
	}
	return table(obs...)
}

func pointers(obs []Observation) []*Observation {
	out := make([]*Observation, len(obs))
	for i := range obs {
		out[i] = &obs[i]
	}
	return out
}
