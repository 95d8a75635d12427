package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.True(t, cfg.Empty())

	content := `version: 1
hooks:
  on_confirmed:
    - command: "echo {{barber}}"
      timeout: 5
  on_timed_out:
    - command: "echo gave up"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err = LoadConfig(dir)
	require.NoError(t, err)
	require.Len(t, cfg.Hooks.OnConfirmed, 1)
	assert.Equal(t, "echo {{barber}}", cfg.Hooks.OnConfirmed[0].Command)
	assert.Equal(t, 5, cfg.Hooks.OnConfirmed[0].Timeout)
	assert.False(t, cfg.Empty())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("hooks: ["), 0o644))
	_, err = LoadConfig(dir)
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	vars := Variables{Session: "s1", Barber: "Carlos Mendoza", Service: "Corte Clásico", Price: 25000, Source: "auto", Attempts: 3}

	tests := []struct {
		name     string
		hook     *HookConfig
		expected string
		contains string
	}{
		{name: "nil hook", hook: nil, expected: ""},
		{name: "empty command", hook: &HookConfig{}, expected: ""},
		{name: "expands variables", hook: &HookConfig{Command: "echo {{barber}}/{{service}}/{{price}}/{{source}}/{{attempts}}/{{session}}", Timeout: 5}, expected: "Carlos Mendoza/Corte Clásico/25000/auto/3/s1\n"},
		{name: "environment", hook: &HookConfig{Command: `echo "$BARBERIA_SESSION $BARBERIA_PRICE $BARBERIA_SOURCE $BARBERIA_ATTEMPTS"`, Timeout: 5}, expected: "s1 25000 auto 3\n"},
		{name: "failure is reported", hook: &HookConfig{Command: "echo oops >&2; exit 3", Timeout: 5}, contains: "[Hook command failed"},
		{name: "timeout is reported", hook: &HookConfig{Command: "sleep 5", Timeout: 1}, contains: "[Hook timed out after 1s]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Execute(ctx, tt.hook, workDir, vars)
			require.NoError(t, err)
			if tt.contains != "" {
				assert.Contains(t, output, tt.contains)
				return
			}
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestExecute_NamesStayOneWord(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()

	tests := []struct {
		name    string
		barber  string
		service string
	}{
		{"apostrophe", "José O'Brien", "Corte Clásico"},
		{"ampersand", "Carlos Mendoza", "Corte & Barba"},
		{"semicolon", "Carlos Mendoza", "Corte; Barba"},
		{"command substitution", "$(touch injected)", "`touch injected`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := Variables{Barber: tt.barber, Service: tt.service}
			output, err := Execute(ctx, &HookConfig{Command: `printf '%s|' {{barber}} {{service}}`, Timeout: 5}, workDir, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.barber+"|"+tt.service+"|", output)
			assert.NoFileExists(t, filepath.Join(workDir, "injected"))
		})
	}
}

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, &HookConfig{Command: "echo test", Timeout: 5}, t.TempDir(), Variables{})
	assert.Error(t, err)
}

func TestRunner(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: HooksConfig{
		OnConfirmed: []*HookConfig{{Command: "echo {{barber}} {{source}} > confirmed.txt", Timeout: 5}},
		OnTimedOut:  []*HookConfig{{Command: "echo {{attempts}} > timed_out.txt", Timeout: 5}},
	}}
	r := NewRunner(context.Background(), cfg, dir, "s1")

	sel := booking.Selection{EmployeeName: "Andrés Ruiz", ServiceName: "Corte Clásico", ServicePrice: 25000}
	r.Observe(booking.Event{Type: booking.EventStepChanged, Selection: sel})
	r.Observe(booking.Event{Type: booking.EventConfirmed, Source: booking.SourceManual, Selection: sel})
	r.Observe(booking.Event{Type: booking.EventWatcherTimedOut, Attempts: 180, Selection: sel})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))

	data, err := os.ReadFile(filepath.Join(dir, "confirmed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Andrés Ruiz manual\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "timed_out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "180\n", string(data))
}

func TestRunner_WaitOutlivesCancelledContext(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: HooksConfig{
		OnConfirmed: []*HookConfig{{Command: "sleep 0.3; touch done", Timeout: 5}},
	}}
	parent, cancelParent := context.WithCancel(context.Background())
	r := NewRunner(parent, cfg, dir, "s1")

	r.Observe(booking.Event{Type: booking.EventConfirmed, Source: booking.SourceAuto})
	time.Sleep(50 * time.Millisecond)
	cancelParent()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
	assert.FileExists(t, filepath.Join(dir, "done"))
}
