package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/mark3labs/barberia/internal/config"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/mark3labs/barberia/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█▄▄ ▄▀█ █▀█ █▄▄ █▀▀ █▀█ █ ▄▀█"
	logoText2 = "█▄█ █▀█ █▀▄ █▄█ ██▄ █▀▄ █ █▀█"
)

// Version set via ldflags during build
var version = "dev"

var rootFlags struct {
	dataDir     string
	logLevel    string
	logFile     string
	calendarURL string
}

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg *config.Config

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "barberia",
	Short:             "Barbershop booking wizard with calendar confirmation watching",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.Current()
	return strings.Join([]string{
		gradient(logoText1, t.Primary, t.Secondary),
		gradient(logoText2, t.Primary, t.Secondary),
	}, "\n")
}

func gradient(text, from, to string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		pos := float64(i) / float64(max(1, len(runes)-1))
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Blend(from, to, pos))).Render(string(r)))
	}
	return b.String()
}

func init() {
	rootCmd.Long = renderLogo() + `

barberia walks a visitor through booking a haircut: choose a barber, choose a
service, review the summary, book a time in the shop's embedded calendar and
land on the contact card. While the calendar step is open the calendar page is
watched for a confirmation message; after a grace period an "I already booked"
control is offered as a fallback.

Configuration is loaded from multiple sources with the following precedence:
  CLI flags > Environment variables > Project config > Global config > Defaults

Project config: ./barberia.yml
Global config: ~/.config/barberia/barberia.yml
A .env file in the working directory is loaded into the environment first.`

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for the journal and UI state (default: .barberia)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Write logs to this file")
	pf.StringVar(&rootFlags.calendarURL, "calendar-url", "", "URL of the embedded booking calendar")

	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads .env, the config files and the environment, then applies
// any persistent flags on top and configures logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		loaded.DataDir = rootFlags.dataDir
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = rootFlags.logLevel
	}
	if flags.Changed("log-file") {
		loaded.LogFile = rootFlags.logFile
	}
	if flags.Changed("calendar-url") {
		loaded.CalendarURL = rootFlags.calendarURL
	}

	if err := loaded.Validate(); err != nil {
		return err
	}
	if err := logger.Configure(loaded.LogLevel, loaded.LogFile); err != nil {
		return err
	}
	cfg = loaded
	return nil
}
