package model

// ForecastPoint is one future year of a model's forecast.
type ForecastPoint struct {
	Year  int
	Point float64
	Lower float64
	Upper float64
}

// ForecastResult is the output of a single model fit, one point per horizon step.
type ForecastResult struct {
	Model        string
	LastObserved int // last historical year; Points start at LastObserved+1
	Points       []ForecastPoint
}

// ForecastRecord is a normalized report row.
type ForecastRecord struct {
	Ticker        string
	Model         string
	Year          int
	ForecastPrice float64
	LowerPrice    float64
	UpperPrice    float64
	ForecastValue float64
	LowerValue    float64
	UpperValue    float64
}

// FailureKind classifies why a ticker or model produced no rows.
type FailureKind string

const (
	FailureDataFetch     FailureKind = "DATA_FETCH"
	FailureEmptySeries   FailureKind = "EMPTY_SERIES"
	FailureModelFit      FailureKind = "MODEL_FIT"
	FailureInconsistency FailureKind = "INTERNAL_CONSISTENCY"
)

// Failure is a diagnostic for one ticker, or one model of one ticker.
type Failure struct {
	Ticker  string
	Model   string // empty for ticker-level failures
	Kind    FailureKind
	Message string
}
