// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mark3labs/barberia/internal/booking"
	"github.com/mark3labs/barberia/internal/catalog"
	"github.com/mark3labs/barberia/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for barberia.
type Config struct {
	CalendarURL         string             `mapstructure:"calendar_url" yaml:"calendar_url"`
	DataDir             string             `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel            string             `mapstructure:"log_level" yaml:"log_level"`
	LogFile             string             `mapstructure:"log_file" yaml:"log_file"`
	Listen              string             `mapstructure:"listen" yaml:"listen"`
	PollInterval        time.Duration      `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxAttempts         int                `mapstructure:"max_attempts" yaml:"max_attempts"`
	GracePeriod         time.Duration      `mapstructure:"grace_period" yaml:"grace_period"`
	Cooldown            time.Duration      `mapstructure:"cooldown" yaml:"cooldown"`
	TransitionLock      time.Duration      `mapstructure:"transition_lock" yaml:"transition_lock"`
	AdvanceDelay        time.Duration      `mapstructure:"advance_delay" yaml:"advance_delay"`
	CompactAdvanceDelay time.Duration      `mapstructure:"compact_advance_delay" yaml:"compact_advance_delay"`
	Phrases             []string           `mapstructure:"phrases" yaml:"phrases,omitempty"`
	Barbers             []catalog.Employee `mapstructure:"barbers" yaml:"barbers,omitempty"`
	Services            []catalog.Service  `mapstructure:"services" yaml:"services,omitempty"`
}

// envKeys are bound explicitly so nested decoding picks up BARBERIA_* values
// even when no config file mentions the key.
var envKeys = []string{
	"calendar_url",
	"data_dir",
	"log_level",
	"log_file",
	"listen",
	"poll_interval",
	"max_attempts",
	"grace_period",
	"cooldown",
	"transition_lock",
	"advance_delay",
	"compact_advance_delay",
	"phrases",
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	t := booking.DefaultTiming()
	return &Config{
		DataDir:             ".barberia",
		LogLevel:            "info",
		Listen:              "127.0.0.1:8383",
		PollInterval:        t.PollInterval,
		MaxAttempts:         t.MaxAttempts,
		GracePeriod:         t.GracePeriod,
		Cooldown:            t.Cooldown,
		TransitionLock:      t.TransitionLock,
		AdvanceDelay:        t.AdvanceDelay,
		CompactAdvanceDelay: t.CompactAdvanceDelay,
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("barberia")

	d := Default()
	v.SetDefault("calendar_url", d.CalendarURL)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("grace_period", d.GracePeriod)
	v.SetDefault("cooldown", d.Cooldown)
	v.SetDefault("transition_lock", d.TransitionLock)
	v.SetDefault("advance_delay", d.AdvanceDelay)
	v.SetDefault("compact_advance_delay", d.CompactAdvanceDelay)

	v.SetEnvPrefix("BARBERIA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key, "BARBERIA_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	if globalPath := GlobalPath(); fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	if projectPath := ProjectPath(); fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Watch reloads the configuration whenever the active config file changes
// and hands the result to onChange. It returns the path being watched, or an
// empty string when no config file exists. Reload errors are logged and the
// previous configuration stays in effect.
func Watch(onChange func(*Config)) (string, error) {
	v, err := newViper()
	if err != nil {
		return "", err
	}
	path := v.ConfigFileUsed()
	if path == "" {
		return "", nil
	}

	log := logger.Named("config")
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load()
		if err != nil {
			log.Warn("reload after %s failed: %v", e.Name, err)
			return
		}
		if err := cfg.Validate(); err != nil {
			log.Warn("ignoring invalid config change: %v", err)
			return
		}
		log.Info("config reloaded from %s", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return path, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.CalendarURL != "" {
		u, err := url.Parse(c.CalendarURL)
		if err != nil {
			return fmt.Errorf("calendar_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("calendar_url: unsupported scheme %q", u.Scheme)
		}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	durations := map[string]time.Duration{
		"poll_interval":         c.PollInterval,
		"grace_period":          c.GracePeriod,
		"cooldown":              c.Cooldown,
		"advance_delay":         c.AdvanceDelay,
		"compact_advance_delay": c.CompactAdvanceDelay,
	}
	for key, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}

// Timing converts the configured delays for the booking controller. Zero
// values fall back to the controller defaults; a negative transition_lock
// disables the lock.
func (c *Config) Timing() booking.Timing {
	return booking.Timing{
		PollInterval:        c.PollInterval,
		MaxAttempts:         c.MaxAttempts,
		GracePeriod:         c.GracePeriod,
		Cooldown:            c.Cooldown,
		TransitionLock:      c.TransitionLock,
		AdvanceDelay:        c.AdvanceDelay,
		CompactAdvanceDelay: c.CompactAdvanceDelay,
	}
}

// Catalog builds the barber and service cards. Either list falls back to the
// shop defaults when left empty.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	def := catalog.Default()
	employees, services := c.Barbers, c.Services
	if len(employees) == 0 {
		employees = def.Employees
	}
	if len(services) == 0 {
		services = def.Services
	}
	cat, err := catalog.New(employees, services)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return cat, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/barberia/barberia.yml or $XDG_CONFIG_HOME/barberia/barberia.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "barberia", "barberia.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "barberia", "barberia.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "barberia.yml"
}

// Marshal renders the config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return writeFile(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return writeFile(ProjectPath(), cfg)
}

func writeFile(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
