package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"AssetForecast/internal/calculator"
	"AssetForecast/internal/model"
)

// holtZ is the fixed multiplier of the residual band.
const holtZ = 1.96

// Holt is additive-trend exponential smoothing with no seasonal component.
// Smoothing weights and the initial level and trend are chosen by minimising
// the in-sample one-step squared error. The model has no native interval; the
// band at step h is 1.96 * sd(residuals) * sqrt(h).
type Holt struct {
	MinObservations int
	MaxIterations   int
}

// NewHolt returns a Holt forecaster with default limits.
func NewHolt() *Holt {
	return &Holt{MinObservations: 3, MaxIterations: 4000}
}

func (m *Holt) Name() string { return "Exponential Smoothing" }

// holtParams are the fitted smoothing weights and initial state.
type holtParams struct {
	alpha, beta float64
	level0      float64
	trend0      float64
}

// run filters y and returns the one-step fitted values and the final state.
func (p holtParams) run(y []float64) (fitted []float64, level, trend float64) {
	fitted = make([]float64, len(y))
	level, trend = p.level0, p.trend0
	for t, obs := range y {
		fitted[t] = level + trend
		prev := level
		level = p.alpha*obs + (1-p.alpha)*(level+trend)
		trend = p.beta*(level-prev) + (1-p.beta)*trend
	}
	return fitted, level, trend
}

func (m *Holt) Forecast(ys model.YearlySeries, steps int) (*model.ForecastResult, error) {
	if err := checkInput(ys, steps, max(m.MinObservations, 2)); err != nil {
		return nil, err
	}
	y := ys.Closes()

	params, err := m.fit(y)
	if err != nil {
		return nil, err
	}

	fitted, level, trend := params.run(y)
	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - fitted[i]
	}
	sigma := calculator.PopStdDev(residuals)
	if !finite(sigma, level, trend) {
		return nil, fmt.Errorf("%w: smoothing produced non-finite state", ErrModelFit)
	}

	res := newResult(ys, steps)
	for i := range res.Points {
		h := float64(i + 1)
		point := level + h*trend
		margin := holtZ * sigma * math.Sqrt(h)
		res.Points[i].Point = point
		res.Points[i].Lower = point - margin
		res.Points[i].Upper = point + margin
	}
	return res, nil
}

// fit optimises on the series scaled by its mean so the simplex steps are
// comparable across price levels. A flat series has nothing to optimise and is
// tracked exactly.
func (m *Holt) fit(y []float64) (holtParams, error) {
	if calculator.IsFlat(y) {
		return holtParams{alpha: 1, beta: 0, level0: y[0], trend0: 0}, nil
	}

	scale := math.Abs(stat.Mean(y, nil))
	if scale == 0 {
		scale = 1
	}
	scaled := make([]float64, len(y))
	for i, v := range y {
		scaled[i] = v / scale
	}

	decode := func(x []float64) holtParams {
		return holtParams{
			alpha:  logistic(x[0]),
			beta:   logistic(x[1]),
			level0: x[2],
			trend0: x[3],
		}
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitted, _, _ := decode(x).run(scaled)
			var sse float64
			for i, v := range scaled {
				d := v - fitted[i]
				sse += d * d
			}
			if !finite(sse) {
				return math.MaxFloat64
			}
			return sse
		},
	}
	x0 := []float64{0, logit(0.1), scaled[0], scaled[1] - scaled[0]}
	settings := &optimize.Settings{
		MajorIterations: m.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return holtParams{}, fmt.Errorf("%w: smoothing optimisation: %v", ErrModelFit, err)
	}
	if !finite(result.F) || result.F == math.MaxFloat64 {
		return holtParams{}, fmt.Errorf("%w: smoothing optimisation diverged", ErrModelFit)
	}

	p := decode(result.X)
	p.level0 *= scale
	p.trend0 *= scale
	return p, nil
}

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }
