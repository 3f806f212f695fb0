package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChiSquareCritical(t *testing.T) {
	assert.InDelta(t, 11.1433, ChiSquareCritical(0.025, 4), 1e-3)
	assert.InDelta(t, 5.9915, ChiSquareCritical(0.05, 2), 1e-3)

	clf := NewMahalanobisClassifier(0.025, 8)
	assert.Equal(t, ChiSquareCritical(0.025, MahalanobisFeatures), clf.Critical())
	assert.Equal(t, MethodMahalanobis, clf.Method())
}

func TestFeatureVector(t *testing.T) {
	o := Observation{UKmDay: 3, VKmDay: -4, BearingDeg: 90}
	f := FeatureVector(&o)
	assert.Len(t, f, MahalanobisFeatures)
	assert.Equal(t, 3.0, f[0])
	assert.Equal(t, -4.0, f[1])
	assert.InDelta(t, 1, f[2], 1e-12)
	assert.InDelta(t, 0, f[3], 1e-12)
}

func TestStandardize_ZeroSpreadColumn(t *testing.T) {
	data := [][]float64{{1, 5}, {3, 5}}
	x := []float64{2, 7}
	standardize(data, x)
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, data)
	assert.Equal(t, []float64{0, 2}, x)
}

func TestMahalanobisClassifier_Classify(t *testing.T) {
	neighbors := pointers(noisyCluster(t, 40, 11))
	clf := NewMahalanobisClassifier(0.025, 8)

	t.Run("outlier is type 3", func(t *testing.T) {
		target := obsAt("A", "B", 0, 0, 1, 270)
		target.UKmDay, target.VKmDay = 40, -30
		v := clf.Classify(&target, neighbors)
		assert.Equal(t, Category31, v.Category)
		assert.Greater(t, v.MahalanobisSq, clf.Critical())
		assert.Equal(t, 40, v.NeighborCount)
		assert.True(t, math.IsNaN(v.DistanceZ))
	})

	t.Run("typical observation", func(t *testing.T) {
		target := obsAt("A", "B", 0, 0, 1, 90)
		target.UKmDay, target.VKmDay = 10, 5
		v := clf.Classify(&target, neighbors)
		assert.Equal(t, Category01, v.Category)
		assert.Less(t, v.MahalanobisSq, clf.Critical())
	})

	t.Run("below min neighbors", func(t *testing.T) {
		target := obsAt("A", "B", 0, 0, 1, 270)
		target.UKmDay, target.VKmDay = 40, -30
		v := NewMahalanobisClassifier(0.025, 100).Classify(&target, neighbors)
		assert.Equal(t, Category30, v.Category)
	})
}

func TestMahalanobisClassifier_InsufficientNeighbors(t *testing.T) {
	clf := NewMahalanobisClassifier(0.025, 1)
	neighbors := pointers(noisyCluster(t, 4, 2))
	target := obsAt("A", "B", 0, 0, 100, 270)

	v := clf.Classify(&target, neighbors)
	assert.Equal(t, Category00, v.Category, "four neighbors cannot fit four features")
	assert.Equal(t, 4, v.NeighborCount)
	assert.True(t, math.IsNaN(v.MahalanobisSq))

	v = clf.Classify(&target, pointers(noisyCluster(t, 2, 2)))
	assert.Equal(t, Category00, v.Category)
}

func TestMahalanobisClassifier_SingularNeighborhood(t *testing.T) {
	var obs []Observation
	for i := 0; i < 10; i++ {
		obs = append(obs, obsAt("A", "B", float64(i), 0, 2, 45))
	}
	target := obsAt("A", "B", 0, 0, 20, 225)

	v := NewMahalanobisClassifier(0.025, 3).Classify(&target, pointers(table(obs...)))
	assert.Equal(t, Category00, v.Category)
	assert.True(t, math.IsNaN(v.MahalanobisSq))
}
