package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/model"
	"AssetForecast/internal/recorder"
)

// Columns is the fixed column order of the forecast table.
var Columns = []string{
	"Ticker", "Model", "Year",
	"Forecast Price", "Lower CI", "Upper CI",
	"Asset Value", "Lower Asset Value", "Upper Asset Value",
}

const noForecasts = "No forecasts to display."

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Row flattens a record in column order.
func Row(r model.ForecastRecord) []string {
	return []string{
		r.Ticker, r.Model, strconv.Itoa(r.Year),
		formatFloat(r.ForecastPrice), formatFloat(r.LowerPrice), formatFloat(r.UpperPrice),
		formatFloat(r.ForecastValue), formatFloat(r.LowerValue), formatFloat(r.UpperValue),
	}
}

// ForecastTable builds the table of all records.
func ForecastTable(records []model.ForecastRecord, horizon int) Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = Row(r)
	}
	return Table{
		Title:    fmt.Sprintf("Forecast for the Next %d Years using Different Models", horizon),
		Headers:  Columns,
		Rows:     rows,
		LeftCols: 2,
	}
}

// FailureLine describes one failure for the terminal.
func FailureLine(f model.Failure) string {
	who := f.Ticker
	if f.Model != "" {
		who += " / " + f.Model
	}
	return fmt.Sprintf("%s [%s]: %s", who, f.Kind, f.Message)
}

// Print writes the full run report: table, failures and closing notes.
func Print(w io.Writer, rep *engine.Report) error {
	var b strings.Builder

	if len(rep.Failures) > 0 {
		b.WriteString(warnStyle.Render("Failures:"))
		b.WriteString("\n")
		for _, f := range rep.Failures {
			style := mutedStyle
			if f.Kind == model.FailureInconsistency {
				style = errorStyle
			}
			b.WriteString("  " + style.Render(FailureLine(f)) + "\n")
		}
		b.WriteString("\n")
	}

	if len(rep.Records) == 0 {
		b.WriteString(noForecasts + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(RenderTable(ForecastTable(rep.Records, rep.Horizon)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Estimation Confidence:"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Each model produces its own forecast along with 95% confidence intervals based on its methodology."))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Wide intervals in one model might indicate sensitivity to model assumptions or limitations in the historical data."))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RunsTable lists stored runs.
func RunsTable(runs []recorder.RunSummary) Table {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Tickers,
			strconv.Itoa(r.Horizon),
			strconv.Itoa(r.RecordCount),
			strconv.Itoa(r.FailureCount),
		}
	}
	return Table{
		Title:    "Recent Runs",
		Headers:  []string{"Run", "Started", "Tickers", "Horizon", "Rows", "Failures"},
		Rows:     rows,
		LeftCols: 3,
	}
}
