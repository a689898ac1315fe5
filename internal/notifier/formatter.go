package notifier

import (
	"fmt"
	"html"
	"strings"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
	"AssetForecast/internal/model"
)

// FormatForecastSummary formats a run into a Telegram message. Only the final
// horizon year is shown per ticker and model.
func FormatForecastSummary(rep *engine.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>Asset Forecast</b> | %s | %dy horizon\n",
		rep.StartedAt.Format("2006-01-02"), rep.Horizon))

	for _, req := range rep.Requests {
		last := lastPerModel(rep.RecordsFor(req.Ticker))
		if len(last) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (×%g)\n", html.EscapeString(req.Ticker), req.Amount))
		for _, rec := range last {
			b.WriteString(fmt.Sprintf("  %s %d: %.2f [%.2f, %.2f] value %.2f\n",
				rec.Model, rec.Year, rec.ForecastPrice, rec.LowerPrice, rec.UpperPrice, rec.ForecastValue))
		}
	}

	if len(rep.Failures) > 0 {
		b.WriteString("\n⚠️ <b>Failures</b>\n")
		for _, f := range rep.Failures {
			b.WriteString("  " + formatFailure(f) + "\n")
		}
	}
	if len(rep.Records) == 0 {
		b.WriteString("\nNo forecasts to display.\n")
	}
	return b.String()
}

func lastPerModel(records []model.ForecastRecord) []model.ForecastRecord {
	var out []model.ForecastRecord
	idx := map[string]int{}
	for _, rec := range records {
		if i, ok := idx[rec.Model]; ok {
			if rec.Year > out[i].Year {
				out[i] = rec
			}
			continue
		}
		idx[rec.Model] = len(out)
		out = append(out, rec)
	}
	return out
}

func formatFailure(f model.Failure) string {
	who := html.EscapeString(f.Ticker)
	if f.Model != "" {
		who += "/" + f.Model
	}
	return fmt.Sprintf("%s %s: %s", who, f.Kind, html.EscapeString(f.Message))
}

// FormatHoldings formats the stored holding amounts.
func FormatHoldings(entries []holdings.Entry) string {
	if len(entries) == 0 {
		return "📦 No holdings recorded. Every ticker uses amount 1."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Holdings</b>\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s: %g\n", html.EscapeString(e.Ticker), e.Amount))
	}
	return b.String()
}

// FormatHelp lists the commands understood by the poller.
func FormatHelp() string {
	return "Available commands:\n• /forecast run the watchlist now\n• /holdings show holding amounts"
}
