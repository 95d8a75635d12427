package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/logger"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".barberia.hooks.yml"

var log = logger.Named("hooks")

// LoadConfig loads the hooks configuration from the working directory.
// Returns nil if the config file doesn't exist (hooks are optional).
// Returns an error only if the file exists but cannot be parsed.
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("no hooks config at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	log.Debug("loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables holds the values that can be expanded in hook commands.
type Variables struct {
	Session  string
	Barber   string
	Service  string
	Price    int
	Source   string
	Attempts int
}

// VariablesFor extracts hook variables from a wizard event.
func VariablesFor(session string, e booking.Event) Variables {
	return Variables{
		Session:  session,
		Barber:   e.Selection.EmployeeName,
		Service:  e.Selection.ServiceName,
		Price:    e.Selection.ServicePrice,
		Source:   string(e.Source),
		Attempts: e.Attempts,
	}
}

// Execute runs a hook command and returns its output.
// Placeholders in the command ({{barber}}, {{service}}, {{price}}, {{source}},
// {{attempts}}, {{session}}) are expanded to single shell words before
// execution, and the same values are exported as BARBERIA_* variables.
// A failing or timed out command is reported in the output with a nil error.
// Only context cancellation is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	log.Debug("executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"BARBERIA_SESSION="+vars.Session,
		"BARBERIA_BARBER="+vars.Barber,
		"BARBERIA_SERVICE="+vars.Service,
		"BARBERIA_PRICE="+strconv.Itoa(vars.Price),
		"BARBERIA_SOURCE="+vars.Source,
		"BARBERIA_ATTEMPTS="+strconv.Itoa(vars.Attempts),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if execCtx.Err() == context.DeadlineExceeded {
		log.Warn("hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		log.Warn("hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	return output, nil
}

// expandVariables replaces {{variable}} placeholders in the command string.
// Text values are shell-quoted; barber and service names are free text.
func expandVariables(command string, vars Variables) string {
	return strings.NewReplacer(
		"{{session}}", shellQuote(vars.Session),
		"{{barber}}", shellQuote(vars.Barber),
		"{{service}}", shellQuote(vars.Service),
		"{{price}}", strconv.Itoa(vars.Price),
		"{{source}}", shellQuote(vars.Source),
		"{{attempts}}", strconv.Itoa(vars.Attempts),
	).Replace(command)
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
