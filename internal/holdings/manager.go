// Package holdings remembers the holding amount last used for each ticker so
// interactive runs can offer it as the default.
package holdings

import (
	"sort"
	"strings"
	"sync"

	"AssetForecast/internal/forecast"
	"AssetForecast/internal/model"
)

// Manager guards the holdings state and persists every change.
type Manager struct {
	mu       sync.Mutex
	state    *model.HoldingsState
	filePath string
}

// NewManager loads holdings from filePath, or starts empty.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Manager{state: state, filePath: filePath}, nil
}

func key(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Amount returns the saved amount for ticker.
func (m *Manager) Amount(ticker string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state.Amounts[key(ticker)]
	return v, ok
}

// Set stores amounts for several tickers and saves once. Invalid amounts are
// stored as the default holding amount.
func (m *Manager) Set(amounts map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, v := range amounts {
		v, _ = forecast.SanitizeAmount(v)
		m.state.Amounts[key(t)] = v
	}
	return SaveState(m.filePath, m.state)
}

// Entry is one saved holding.
type Entry struct {
	Ticker string
	Amount float64
}

// List returns saved holdings sorted by ticker.
func (m *Manager) List() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.state.Amounts))
	for t, v := range m.state.Amounts {
		out = append(out, Entry{Ticker: t, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
