package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"AssetForecast/internal/model"
)

// LinearTrend regresses price on an integer time index t = 0, 1, 2, ... and
// extrapolates with the observation-level OLS prediction interval.
type LinearTrend struct {
	MinObservations int
}

// NewLinearTrend returns a linear trend forecaster.
func NewLinearTrend() *LinearTrend {
	return &LinearTrend{MinObservations: 2}
}

func (m *LinearTrend) Name() string { return "Linear Regression" }

func (m *LinearTrend) Forecast(ys model.YearlySeries, steps int) (*model.ForecastResult, error) {
	if err := checkInput(ys, steps, max(m.MinObservations, 2)); err != nil {
		return nil, err
	}
	y := ys.Closes()
	n := len(y)
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}

	tMean := stat.Mean(t, nil)
	var sxx float64
	for _, v := range t {
		sxx += (v - tMean) * (v - tMean)
	}
	if sxx == 0 {
		return nil, fmt.Errorf("%w: singular design matrix", ErrModelFit)
	}

	intercept, slope := stat.LinearRegression(t, y, nil, false)
	if !finite(intercept, slope) {
		return nil, fmt.Errorf("%w: regression produced non-finite coefficients", ErrModelFit)
	}

	// With two points the line is exact and there are no residual degrees of
	// freedom, so the prediction interval is unbounded.
	dof := float64(n - 2)
	var s2, tq float64
	if dof > 0 {
		var ssr float64
		for i, v := range y {
			r := v - (intercept + slope*t[i])
			ssr += r * r
		}
		s2 = ssr / dof
		tq = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Quantile(0.975)
	}

	res := newResult(ys, steps)
	for h := range res.Points {
		t0 := float64(n - 1 + h + 1)
		point := intercept + slope*t0
		lower, upper := math.Inf(-1), math.Inf(1)
		if dof > 0 {
			se := math.Sqrt(s2 * (1 + 1/float64(n) + (t0-tMean)*(t0-tMean)/sxx))
			lower, upper = point-tq*se, point+tq*se
		}
		res.Points[h].Point = point
		res.Points[h].Lower = lower
		res.Points[h].Upper = upper
	}
	return res, nil
}
