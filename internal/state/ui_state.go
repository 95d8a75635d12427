package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/barberia/internal/logger"
)

const fileName = "ui-state.json"

// UIState holds preferences that carry across booking sessions.
type UIState struct {
	LastBarber  string `json:"last_barber,omitempty"`
	LastService string `json:"last_service,omitempty"`
	Compact     *bool  `json:"compact,omitempty"` // nil follows the terminal width
}

// DefaultUIState returns an empty preference set.
func DefaultUIState() *UIState {
	return &UIState{}
}

// Load reads the UI state from <dataDir>/ui-state.json.
// Returns default state if the file doesn't exist or on error.
func Load(dataDir string) *UIState {
	path := filepath.Join(dataDir, fileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUIState()
	}
	if err != nil {
		logger.Warn("failed to read UI state file: %v", err)
		return DefaultUIState()
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	return &state
}

// Save writes the UI state, creating the data directory if needed.
func Save(dataDir string, state *UIState) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	path := filepath.Join(dataDir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}

// RememberSelection stores the barber and service ids, keeping the previous
// value for any empty argument.
func (s *UIState) RememberSelection(barber, service string) {
	if barber != "" {
		s.LastBarber = barber
	}
	if service != "" {
		s.LastService = service
	}
}
