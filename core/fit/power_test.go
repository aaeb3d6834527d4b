package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/internal/errors"
)

func TestPowerLawRecoversExactCurve(t *testing.T) {
	capacity := []float64{1, 2, 4, 8, 16}
	cost := make([]float64, len(capacity))
	for i, c := range capacity {
		cost[i] = 100 * math.Pow(c/16, 0.6)
	}

	res, err := PowerLaw(capacity, cost, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 16.0, res.ReferenceDriver)
	assert.InDelta(t, 100, res.ReferencePrice, 1e-6)
	assert.InDelta(t, 0.6, res.Exponent, 1e-8)
	assert.Equal(t, 0.6, res.ScalingFactor)
	assert.Equal(t, 0.0, res.MeanAbsolutePercentageError)
	assert.Equal(t, []float64{1.0 / 16, 2.0 / 16, 4.0 / 16, 8.0 / 16, 1}, res.Ratios)
	for i := range cost {
		assert.InDelta(t, cost[i], res.Predicted[i], 1e-6)
	}
}

func TestPowerLawPumpSet(t *testing.T) {
	capacity := []float64{10, 20, 30, 40}
	cost := []float64{1000, 1700, 2200, 2600}

	res, err := PowerLaw(capacity, cost, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 40.0, res.ReferenceDriver)
	assert.Greater(t, res.ScalingFactor, 0.5)
	assert.Less(t, res.ScalingFactor, 0.8)
	assert.InDelta(t, 2600, res.ReferencePrice, 200)
	assert.False(t, math.IsNaN(res.MeanAbsolutePercentageError))
	assert.Less(t, res.MeanAbsolutePercentageError, 10.0)
	require.Len(t, res.PercentErrors, 4)

	// reported values are rounded
	assert.Equal(t, res.ScalingFactor, math.Round(res.ScalingFactor*1e5)/1e5)
	assert.Equal(t, res.MeanAbsolutePercentageError, math.Round(res.MeanAbsolutePercentageError*100)/100)
	assert.InDelta(t, res.Predict(20), res.Predicted[1], 1e-9)
}

func TestPowerLawImprovesOnLogRegression(t *testing.T) {
	capacity := []float64{5, 12, 30, 55, 90, 200}
	noise := []float64{1.02, 0.97, 1.01, 0.99, 1.03, 0.98}
	cost := make([]float64, len(capacity))
	for i, c := range capacity {
		cost[i] = 5000 * math.Pow(c/200, 0.7) * noise[i]
	}

	res, err := PowerLaw(capacity, cost, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.7, res.Exponent, 0.05)

	p := &problem{ratios: res.Ratios, cost: cost}
	a0, x0 := p.initialGuess()
	assert.LessOrEqual(t, res.SumSquaredResiduals, p.ssr(a0, x0))
}

func TestPowerLawSlowValleyConverges(t *testing.T) {
	// steep negative exponent over three decades of capacity; needs several
	// hundred accepted steps
	capacity := []float64{389.72, 2.8137, 533.98}
	cost := []float64{1.696e6, 1.109e8, 3.883e5}

	res, err := PowerLaw(capacity, cost, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 533.98, res.ReferenceDriver)
	assert.InDelta(t, -0.90904, res.Exponent, 1e-3)
	assert.InEpsilon(t, 941639.7, res.ReferencePrice, 0.01)
}

func TestPowerLawIterationLimit(t *testing.T) {
	_, err := PowerLaw([]float64{10, 20, 30, 40}, []float64{1000, 1700, 2200, 2600}, Options{MaxIterations: 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeCurveFit))
}

func TestPowerLawRejectsUnusableSamples(t *testing.T) {
	tests := []struct {
		name     string
		capacity []float64
		cost     []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{1, 2}, []float64{1}},
		{"single sample", []float64{10}, []float64{100}},
		{"duplicate samples", []float64{10, 10}, []float64{100, 100}},
		{"single capacity", []float64{10, 10, 10}, []float64{100, 150, 200}},
		{"negative cost", []float64{10, 20}, []float64{100, -5}},
		{"zero capacity", []float64{0, 20}, []float64{100, 200}},
		{"nan capacity", []float64{math.NaN(), 20}, []float64{100, 200}},
		{"infinite cost", []float64{10, 20}, []float64{math.Inf(1), 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := PowerLaw(tt.capacity, tt.cost, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.IsType(err, errors.TypeCurveFit))
		})
	}
}

func TestResultModel(t *testing.T) {
	res := &Result{ReferenceDriver: 40, ReferencePrice: 2600, ScalingFactor: 0.65, MeanAbsolutePercentageError: 2.5}
	m := res.Model("kW")
	assert.Equal(t, "kW", m.ReferenceUnit)
	assert.Equal(t, 40.0, m.ReferenceDriver)
	assert.Equal(t, 0.65, m.ScalingFactor)
}
