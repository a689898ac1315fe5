package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARIMA_ForecastInvariants(t *testing.T) {
	ys := yearly(2010, goldCloses...)
	res, err := NewARIMA().Forecast(ys, 10)
	require.NoError(t, err)
	require.NoError(t, Check(res, 10))

	assert.Equal(t, 2024, res.LastObserved)
	assert.Equal(t, 2025, res.Points[0].Year)
	assert.Equal(t, 2034, res.Points[9].Year)

	prev := 0.0
	for _, p := range res.Points {
		width := p.Upper - p.Lower
		assert.GreaterOrEqual(t, width, prev)
		assert.InDelta(t, p.Point, (p.Upper+p.Lower)/2, 1e-6*math.Abs(p.Point))
		prev = width
	}
}

func TestARIMA_TooFewPoints(t *testing.T) {
	_, err := NewARIMA().Forecast(yearly(2021, 100, 110, 120), 5)
	assert.ErrorIs(t, err, ErrModelFit)
}

func TestARIMA_ConstantSeriesFails(t *testing.T) {
	_, err := NewARIMA().Forecast(yearly(2018, 50, 50, 50, 50, 50), 5)
	assert.ErrorIs(t, err, ErrModelFit)
}

func TestArmaNegLogLik_WhiteNoise(t *testing.T) {
	w := []float64{1, -2, 3, -1}
	nll, sigma2, next, ok := armaNegLogLik(w, 0, 0)
	require.True(t, ok)

	// 1+4+9+1 = 15 over 4 observations
	assert.InDelta(t, 15.0/4, sigma2, 1e-12)
	assert.Equal(t, 0.0, next)
	want := 0.5 * 4 * (math.Log(2*math.Pi) + 1 + math.Log(15.0/4))
	assert.InDelta(t, want, nll, 1e-12)
}

func TestArmaNegLogLik_AR1Prediction(t *testing.T) {
	_, _, next, ok := armaNegLogLik([]float64{1, 2, 4}, 0.5, 0)
	require.True(t, ok)
	assert.InDelta(t, 2.0, next, 1e-12)
}

func TestArmaNegLogLik_RejectsNonStationary(t *testing.T) {
	_, _, _, ok := armaNegLogLik([]float64{1, 2}, 1, 0)
	assert.False(t, ok)
}

func TestPsiWeights(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1, 1}, psiWeights(0, 0, 4))

	psi := psiWeights(0.5, 0.2, 3)
	assert.InDelta(t, 1.0, psi[0], 1e-12)
	assert.InDelta(t, 1.7, psi[1], 1e-12)
	assert.InDelta(t, 2.05, psi[2], 1e-12)
}
