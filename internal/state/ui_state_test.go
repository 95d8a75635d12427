package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNonExistent(t *testing.T) {
	state := Load(filepath.Join(t.TempDir(), "missing"))
	require.NotNil(t, state)
	assert.Equal(t, DefaultUIState(), state)
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "data")
	compact := true
	state := &UIState{LastBarber: "andres-ruiz", LastService: "corte-barba", Compact: &compact}

	require.NoError(t, Save(tmpDir, state))
	_, err := os.Stat(filepath.Join(tmpDir, "ui-state.json"))
	require.NoError(t, err, "state file was not created")

	loaded := Load(tmpDir)
	assert.Equal(t, state, loaded)
}

func TestLoadCorruptFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ui-state.json"), []byte("{bad"), 0644))

	assert.Equal(t, DefaultUIState(), Load(tmpDir))
}

func TestRememberSelection(t *testing.T) {
	s := DefaultUIState()
	s.RememberSelection("carlos", "")
	s.RememberSelection("", "afeitado")
	assert.Equal(t, "carlos", s.LastBarber)
	assert.Equal(t, "afeitado", s.LastService)
}
