package forecast

import (
	"time"

	"AssetForecast/internal/model"
)

func yearly(start int, closes ...float64) model.YearlySeries {
	ys := model.YearlySeries{Symbol: "TEST"}
	for i, c := range closes {
		y := start + i
		ys.Points = append(ys.Points, model.YearlyPoint{
			Year:  y,
			Date:  time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
			Close: c,
		})
	}
	return ys
}

// goldCloses are year-end gold futures settlements, 2010-2024, rounded.
var goldCloses = []float64{
	1420, 1566, 1657, 1202, 1184, 1061, 1146, 1303,
	1281, 1517, 1895, 1828, 1824, 2063, 2641,
}
