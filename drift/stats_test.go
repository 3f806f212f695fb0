package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngularDifference(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{359, 1, -2},
		{1, 359, 2},
		{90, 90, 0},
		{10, 350, 20},
		{180, 0, 180},
		{270, 90, 180},
	}

	for _, tt := range tests {
		got := AngularDifference(tt.a, tt.b)
		assert.InDelta(t, math.Abs(tt.want), math.Abs(got), 1e-9, "AngularDifference(%v, %v)", tt.a, tt.b)
		if math.Abs(tt.want) != 180 {
			assert.InDelta(t, tt.want, got, 1e-9, "AngularDifference(%v, %v)", tt.a, tt.b)
		}
	}
}

func TestCircularMean_WrapsAroundNorth(t *testing.T) {
	mean := RadToDeg(CircularMean([]float64{DegToRad(359), DegToRad(1)}))
	assert.InDelta(t, 0, math.Abs(AngularDifference(mean, 0)), 1e-9)
}

func TestCircularStd(t *testing.T) {
	t.Run("identical angles", func(t *testing.T) {
		a := DegToRad(123)
		assert.Equal(t, 0.0, CircularStd([]float64{a, a, a, a}))
	})

	t.Run("small spread is close to linear std", func(t *testing.T) {
		rad := []float64{DegToRad(89), DegToRad(90), DegToRad(91)}
		// linear population std is sqrt(2/3) degrees
		assert.InDelta(t, math.Sqrt(2.0/3.0), RadToDeg(CircularStd(rad)), 1e-3)
	})

	t.Run("opposite angles stay finite", func(t *testing.T) {
		std := CircularStd([]float64{0, math.Pi})
		assert.False(t, math.IsInf(std, 0))
		assert.Greater(t, std, 7.0)
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularStd(nil)))
	})
}

func TestPopMeanStd_IgnoresNaN(t *testing.T) {
	mean, std := popMeanStd([]float64{1, math.NaN(), 3})
	assert.InDelta(t, 2, mean, 1e-12)
	assert.InDelta(t, 1, std, 1e-12)

	mean, std = popMeanStd([]float64{math.NaN()})
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(std))
}

func TestZeroSpread(t *testing.T) {
	assert.True(t, zeroSpread(0))
	assert.True(t, zeroSpread(1e-12))
	assert.True(t, zeroSpread(math.NaN()))
	assert.False(t, zeroSpread(0.01))
}
