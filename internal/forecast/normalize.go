package forecast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"AssetForecast/internal/model"
)

// DefaultHoldingAmount is used whenever a holding amount is missing or invalid.
const DefaultHoldingAmount = 1.0

// ParseHoldingAmount parses a user-entered holding amount. Anything that is not a
// positive finite number yields DefaultHoldingAmount and ok=false.
func ParseHoldingAmount(s string) (amount float64, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return DefaultHoldingAmount, false
	}
	return SanitizeAmount(v)
}

// SanitizeAmount replaces non-positive or non-finite amounts with the default.
func SanitizeAmount(v float64) (float64, bool) {
	if !(v > 0) || math.IsInf(v, 0) {
		return DefaultHoldingAmount, false
	}
	return v, true
}

// Normalize flattens a forecast into report rows for one ticker and model,
// scaling every price into a holding value by amount.
func Normalize(res *model.ForecastResult, modelName, ticker string, amount float64) ([]model.ForecastRecord, error) {
	if err := Check(res, 0); err != nil {
		return nil, fmt.Errorf("normalize %s/%s: %w", ticker, modelName, err)
	}
	amount, _ = SanitizeAmount(amount)

	records := make([]model.ForecastRecord, len(res.Points))
	for i, p := range res.Points {
		records[i] = model.ForecastRecord{
			Ticker:        ticker,
			Model:         modelName,
			Year:          p.Year,
			ForecastPrice: p.Point,
			LowerPrice:    p.Lower,
			UpperPrice:    p.Upper,
			ForecastValue: p.Point * amount,
			LowerValue:    p.Lower * amount,
			UpperValue:    p.Upper * amount,
		}
	}
	return records, nil
}
