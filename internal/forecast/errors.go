package forecast

import (
	"errors"

	"AssetForecast/internal/calculator"
	"AssetForecast/internal/model"
)

// Error taxonomy. Callers classify with errors.Is.
var (
	ErrDataFetch    = errors.New("data fetch failure")
	ErrEmptySeries  = calculator.ErrEmptySeries
	ErrModelFit     = errors.New("model fit failure")
	ErrInconsistent = errors.New("internal consistency fault")
)

// Classify maps an error onto a FailureKind. Unknown errors are model fit failures.
func Classify(err error) model.FailureKind {
	switch {
	case errors.Is(err, ErrInconsistent):
		return model.FailureInconsistency
	case errors.Is(err, ErrEmptySeries):
		return model.FailureEmptySeries
	case errors.Is(err, ErrDataFetch):
		return model.FailureDataFetch
	default:
		return model.FailureModelFit
	}
}
