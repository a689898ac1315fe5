package holdings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"AssetForecast/internal/model"
)

// LoadState reads holdings from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.HoldingsState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.HoldingsState{Amounts: map[string]float64{}}, nil
		}
		return nil, fmt.Errorf("read holdings: %w", err)
	}
	var state model.HoldingsState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	if state.Amounts == nil {
		state.Amounts = map[string]float64{}
	}
	return &state, nil
}

// SaveState writes holdings to a JSON file, creating its directory if needed.
func SaveState(filePath string, state *model.HoldingsState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create holdings dir: %w", err)
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
