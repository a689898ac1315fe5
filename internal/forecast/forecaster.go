// Package forecast fits yearly price series with three independent models and
// projects each one forward with a 95% band.
//
// The three models disagree on what the band means: ARIMA derives it from the
// fitted error process, Holt smoothing approximates it from in-sample residuals,
// and the linear trend uses the OLS prediction interval. Each is a separate
// Forecaster and the band math is never shared.
package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"AssetForecast/internal/model"
)

// DefaultHorizon is the number of yearly steps forecast when none is given.
const DefaultHorizon = 10

// Forecaster fits a yearly series and returns steps future points with bands.
type Forecaster interface {
	Name() string
	Forecast(ys model.YearlySeries, steps int) (*model.ForecastResult, error)
}

// Outcome is the tagged result of one model invocation: either Result or Err is set.
type Outcome struct {
	Model  string
	Result *model.ForecastResult
	Err    error
}

// OK reports whether the model produced a usable forecast.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// Default returns the models in report order.
func Default() []Forecaster {
	return []Forecaster{NewARIMA(), NewHolt(), NewLinearTrend()}
}

// Run invokes f and checks its output, folding every failure into the Outcome.
func Run(f Forecaster, ys model.YearlySeries, steps int) Outcome {
	out := Outcome{Model: f.Name()}
	res, err := f.Forecast(ys, steps)
	if err != nil {
		out.Err = err
		return out
	}
	if err := Check(res, steps); err != nil {
		out.Err = fmt.Errorf("%s: %w", f.Name(), err)
		return out
	}
	out.Result = res
	return out
}

// Check verifies the ForecastResult invariants: expected length, contiguous years
// starting after the last observation, and lower <= point <= upper everywhere.
func Check(res *model.ForecastResult, steps int) error {
	if res == nil {
		return fmt.Errorf("%w: nil forecast result", ErrInconsistent)
	}
	if steps > 0 && len(res.Points) != steps {
		return fmt.Errorf("%w: expected %d forecast points, got %d", ErrInconsistent, steps, len(res.Points))
	}
	for i, p := range res.Points {
		if want := res.LastObserved + 1 + i; p.Year != want {
			return fmt.Errorf("%w: step %d has year %d, expected %d", ErrInconsistent, i+1, p.Year, want)
		}
		if math.IsNaN(p.Point) || math.IsInf(p.Point, 0) {
			return fmt.Errorf("%w: non-finite point forecast for %d", ErrInconsistent, p.Year)
		}
		if !(p.Lower <= p.Point && p.Point <= p.Upper) {
			return fmt.Errorf("%w: band [%g, %g] does not contain %g for %d",
				ErrInconsistent, p.Lower, p.Upper, p.Point, p.Year)
		}
	}
	return nil
}

func checkInput(ys model.YearlySeries, steps, minObs int) error {
	if steps <= 0 {
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrModelFit, steps)
	}
	if ys.Len() < minObs {
		return fmt.Errorf("%w: need at least %d yearly points, got %d", ErrModelFit, minObs, ys.Len())
	}
	return nil
}

func newResult(ys model.YearlySeries, steps int) *model.ForecastResult {
	last := ys.LastYear()
	res := &model.ForecastResult{
		LastObserved: last,
		Points:       make([]model.ForecastPoint, steps),
	}
	for h := range res.Points {
		res.Points[h].Year = last + 1 + h
	}
	return res
}

// normalQuantile is the two-sided 95% critical value of the standard normal.
var normalQuantile = distuv.UnitNormal.Quantile(0.975)

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
