package calculator

import (
	"errors"
	"time"

	"AssetForecast/internal/model"
)

// ErrEmptySeries is returned when there is nothing to resample.
var ErrEmptySeries = errors.New("empty price series")

// ResampleYearly collapses daily closes into one observation per calendar year,
// keeping the chronologically last price of each year. The input is expected in
// ascending time order; a later observation within the same year always wins.
func ResampleYearly(series model.PriceSeries) (model.YearlySeries, error) {
	out := model.YearlySeries{Symbol: series.Symbol}
	if len(series.Points) == 0 {
		return out, ErrEmptySeries
	}

	var (
		cur     model.PricePoint
		started bool
	)
	flush := func() {
		y := cur.Time.Year()
		out.Points = append(out.Points, model.YearlyPoint{
			Year:  y,
			Date:  time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
			Close: cur.Close,
		})
	}

	for _, p := range series.Points {
		if !started {
			cur = p
			started = true
			continue
		}
		if p.Time.Year() != cur.Time.Year() {
			flush()
			cur = p
			continue
		}
		if !p.Time.Before(cur.Time) {
			cur = p
		}
	}
	flush()
	return out, nil
}
