package model

import "time"

// HoldingsState remembers the last holding amount entered per ticker.
type HoldingsState struct {
	Amounts   map[string]float64 `json:"amounts"`
	UpdatedAt time.Time          `json:"updated_at"`
}
