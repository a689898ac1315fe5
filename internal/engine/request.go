package engine

import (
	"strings"

	"AssetForecast/internal/forecast"
)

// Request asks for forecasts of one ticker scaled by a holding amount.
type Request struct {
	Ticker string
	Amount float64
}

// ParseTickers splits a comma-separated list, trimming blanks and dropping empties.
func ParseTickers(raw string) []string {
	var tickers []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// BuildRequests pairs tickers with amounts. amounts[i] is parsed for tickers[i];
// a missing entry falls back to lookup, then to the default holding amount.
// invalid lists the tickers whose entered amount could not be used.
func BuildRequests(tickers, amounts []string, lookup func(string) (float64, bool)) (reqs []Request, invalid []string) {
	for i, t := range tickers {
		var amount float64
		switch {
		case i < len(amounts) && strings.TrimSpace(amounts[i]) != "":
			v, ok := forecast.ParseHoldingAmount(amounts[i])
			if !ok {
				invalid = append(invalid, t)
			}
			amount = v
		case lookup != nil:
			if v, ok := lookup(t); ok {
				amount, _ = forecast.SanitizeAmount(v)
				break
			}
			amount = forecast.DefaultHoldingAmount
		default:
			amount = forecast.DefaultHoldingAmount
		}
		reqs = append(reqs, Request{Ticker: t, Amount: amount})
	}
	return reqs, invalid
}
