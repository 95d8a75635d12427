package hooks

// Config is the top-level configuration for hooks loaded from .barberia.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig lists the commands to run for each wizard outcome.
type HooksConfig struct {
	OnConfirmed []*HookConfig `yaml:"on_confirmed"`
	OnTimedOut  []*HookConfig `yaml:"on_timed_out"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || (len(c.Hooks.OnConfirmed) == 0 && len(c.Hooks.OnTimedOut) == 0)
}
