// Package chart exports forecast runs as PNG line charts.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/model"
)

var modelColors = []drawing.Color{
	drawing.ColorFromHex("dc2626"), // red-600
	drawing.ColorFromHex("16a34a"), // green-600
	drawing.ColorFromHex("d97706"), // amber-600
	drawing.ColorFromHex("7c3aed"), // violet-600
}

type line struct {
	xs, ys []float64
}

func (l *line) add(x, y float64) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return
	}
	l.xs = append(l.xs, x)
	l.ys = append(l.ys, y)
}

// modelLines splits records into per-model point, lower and upper lines, in
// first-seen model order. Each line starts at the last observed close.
func modelLines(history model.YearlySeries, records []model.ForecastRecord) (names []string, lines map[string][3]*line) {
	lines = make(map[string][3]*line)
	var lastX, lastY float64
	hasLast := history.Len() > 0
	if hasLast {
		p := history.Points[history.Len()-1]
		lastX, lastY = float64(p.Year), p.Close
	}
	for _, r := range records {
		ls, ok := lines[r.Model]
		if !ok {
			ls = [3]*line{{}, {}, {}}
			if hasLast {
				for _, l := range ls {
					l.add(lastX, lastY)
				}
			}
			lines[r.Model] = ls
			names = append(names, r.Model)
		}
		x := float64(r.Year)
		ls[0].add(x, r.ForecastPrice)
		ls[1].add(x, r.LowerPrice)
		ls[2].add(x, r.UpperPrice)
	}
	return names, lines
}

// RenderForecastChart renders yearly history plus each model's forecast and
// band. Returns raw PNG bytes.
func RenderForecastChart(ticker string, history model.YearlySeries, records []model.ForecastRecord) ([]byte, error) {
	var series []chart.Series
	minY, maxY := math.Inf(1), math.Inf(-1)
	track := func(ys []float64) {
		for _, y := range ys {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}

	hist := &line{}
	for _, p := range history.Points {
		hist.add(float64(p.Year), p.Close)
	}
	if len(hist.xs) >= 2 {
		track(hist.ys)
		series = append(series, chart.ContinuousSeries{
			Name: "History",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.5,
			},
			XValues: hist.xs,
			YValues: hist.ys,
		})
	}

	names, lines := modelLines(history, records)
	for i, name := range names {
		color := modelColors[i%len(modelColors)]
		for j, l := range lines[name] {
			if len(l.xs) < 2 {
				continue
			}
			track(l.ys)
			style := chart.Style{StrokeColor: color, StrokeWidth: 2}
			label := name
			if j > 0 {
				style.StrokeWidth = 1
				style.StrokeDashArray = []float64{5.0, 3.0}
				label = name + [3]string{"", " lower", " upper"}[j]
			}
			series = append(series, chart.ContinuousSeries{
				Name:    label,
				Style:   style,
				XValues: l.xs,
				YValues: l.ys,
			})
		}
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no plottable data for %s", ticker)
	}

	yAxis := chart.YAxis{
		ValueFormatter: func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		},
	}
	if maxY-minY == 0 {
		pad := math.Max(math.Abs(minY)*0.1, 1)
		yAxis.Range = &chart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
	}

	graph := chart.Chart{
		Title:  ticker + " Forecast",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis:  yAxis,
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName maps a ticker to a safe PNG file name.
func FileName(ticker string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, ticker)
	return name + ".png"
}

// WriteCharts writes one PNG per ticker with history into dir and returns the
// paths written. A ticker that cannot be rendered is logged and skipped.
func WriteCharts(dir string, rep *engine.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	var paths []string
	for _, req := range rep.Requests {
		history, ok := rep.Histories[req.Ticker]
		if !ok {
			continue
		}
		png, err := RenderForecastChart(req.Ticker, history, rep.RecordsFor(req.Ticker))
		if err != nil {
			log.Warn().Err(err).Str("ticker", req.Ticker).Msg("skip chart")
			continue
		}
		path := filepath.Join(dir, FileName(req.Ticker))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return paths, fmt.Errorf("write chart %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
