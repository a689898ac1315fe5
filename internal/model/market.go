package model

import "time"

// PricePoint is a single closing price observation.
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries holds the daily closing prices for one symbol, ascending by time.
// Missing days are simply absent.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// YearlyPoint is the last observed price of a calendar year, stamped at year end.
type YearlyPoint struct {
	Year  int
	Date  time.Time
	Close float64
}

// YearlySeries holds one observation per calendar year, ascending by year.
type YearlySeries struct {
	Symbol string
	Points []YearlyPoint
}

// Len returns the number of years in the series.
func (s YearlySeries) Len() int { return len(s.Points) }

// Closes returns the prices without their timestamps.
func (s YearlySeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// LastYear returns the calendar year of the final observation, or 0 if empty.
func (s YearlySeries) LastYear() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Year
}
