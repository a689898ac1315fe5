package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"AssetForecast/internal/calculator"
	"AssetForecast/internal/model"
)

// ARIMA fits an ARIMA(1,1,1) model without a constant by exact Gaussian
// maximum likelihood and forecasts with the analytic error variance.
type ARIMA struct {
	MinObservations int
	MaxIterations   int
}

// NewARIMA returns an ARIMA(1,1,1) forecaster with default limits.
func NewARIMA() *ARIMA {
	return &ARIMA{MinObservations: 4, MaxIterations: 2000}
}

func (a *ARIMA) Name() string { return "ARIMA" }

// armaFit is a fitted ARMA(1,1) on the differenced series.
type armaFit struct {
	phi, theta float64
	sigma2     float64
	next       float64 // one-step-ahead prediction of the next difference
}

// Forecast differences the yearly closes once, fits ARMA(1,1) on the
// differences and integrates the forecasts back onto the last observed price.
func (a *ARIMA) Forecast(ys model.YearlySeries, steps int) (*model.ForecastResult, error) {
	if err := checkInput(ys, steps, a.MinObservations); err != nil {
		return nil, err
	}
	y := ys.Closes()
	w := calculator.Diff(y)
	if calculator.IsFlat(w) && w[0] == 0 {
		return nil, fmt.Errorf("%w: constant price series", ErrModelFit)
	}

	fit, err := fitARMA11(w, a.MaxIterations)
	if err != nil {
		return nil, err
	}

	psi := psiWeights(fit.phi, fit.theta, steps)
	res := newResult(ys, steps)
	level := y[len(y)-1]
	diff := fit.next
	var cumVar float64
	for h := 0; h < steps; h++ {
		if h > 0 {
			diff *= fit.phi
		}
		level += diff
		cumVar += psi[h] * psi[h]
		margin := normalQuantile * math.Sqrt(fit.sigma2*cumVar)
		p := &res.Points[h]
		p.Point = level
		p.Lower = level - margin
		p.Upper = level + margin
		if !finite(p.Point, p.Lower, p.Upper) {
			return nil, fmt.Errorf("%w: non-finite forecast at step %d", ErrModelFit, h+1)
		}
	}
	return res, nil
}

// fitARMA11 maximises the concentrated likelihood over (phi, theta). Both are
// mapped through tanh so the search stays stationary and invertible.
func fitARMA11(w []float64, maxIter int) (armaFit, error) {
	phi0 := calculator.Lag1Autocorrelation(w)
	phi0 = math.Max(-0.9, math.Min(0.9, phi0))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			nll, _, _, ok := armaNegLogLik(w, math.Tanh(x[0]), math.Tanh(x[1]))
			if !ok {
				return math.MaxFloat64
			}
			return nll
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, []float64{math.Atanh(phi0), 0}, settings, &optimize.NelderMead{})
	if err != nil {
		return armaFit{}, fmt.Errorf("%w: arima likelihood optimisation: %v", ErrModelFit, err)
	}

	phi, theta := math.Tanh(result.X[0]), math.Tanh(result.X[1])
	_, sigma2, next, ok := armaNegLogLik(w, phi, theta)
	if !ok || !finite(sigma2, next) || sigma2 <= 0 {
		return armaFit{}, fmt.Errorf("%w: arima did not converge (phi=%.4f theta=%.4f)", ErrModelFit, phi, theta)
	}
	return armaFit{phi: phi, theta: theta, sigma2: sigma2, next: next}, nil
}

// armaNegLogLik runs a Kalman filter over w for a zero-mean ARMA(1,1) with unit
// innovation variance and returns the negative log-likelihood with sigma^2
// concentrated out, the sigma^2 estimate and the prediction of the next value.
//
// State: a1 = w_t, a2 = theta*e_t; T = [[phi 1] [0 0]], R = [1 theta]'.
func armaNegLogLik(w []float64, phi, theta float64) (nll, sigma2, next float64, ok bool) {
	if math.Abs(phi) >= 1 {
		return 0, 0, 0, false
	}
	var a0, a1 float64
	p11 := (1 + 2*phi*theta + theta*theta) / (1 - phi*phi)
	p12 := theta
	p22 := theta * theta

	var ssq, sumLogF float64
	for _, obs := range w {
		f := p11
		if !(f > 0) || math.IsInf(f, 0) {
			return 0, 0, 0, false
		}
		v := obs - a0
		ssq += v * v / f
		sumLogF += math.Log(f)

		u0 := a0 + v
		u1 := a1 + p12/f*v
		q22 := p22 - p12*p12/f

		a0 = phi*u0 + u1
		a1 = 0
		p11 = q22 + 1
		p12 = theta
		p22 = theta * theta
	}

	m := float64(len(w))
	sigma2 = ssq / m
	if !(sigma2 > 0) {
		return 0, 0, 0, false
	}
	nll = 0.5 * (m*(math.Log(2*math.Pi)+1+math.Log(sigma2)) + sumLogF)
	return nll, sigma2, a0, true
}

// psiWeights returns the first n MA(infinity) weights of the integrated model
// (1 - phi*B)(1 - B) y = (1 + theta*B) e.
func psiWeights(phi, theta float64, n int) []float64 {
	psi := make([]float64, n)
	for j := range psi {
		switch j {
		case 0:
			psi[j] = 1
		case 1:
			psi[j] = (1+phi)*psi[0] + theta
		default:
			psi[j] = (1+phi)*psi[j-1] - phi*psi[j-2]
		}
	}
	return psi
}
