package main

import (
	"encoding/hex"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"kemcheck/pkg/kem"
)

// Config represents the TOML configuration file
type Config struct {
	Runner     RunnerConfig     `toml:"runner"`
	Algorithms AlgorithmsConfig `toml:"algorithms"`

	// set when the file defines algorithms.large_stack, even as []
	largeStackSet bool
}

// RunnerConfig contains conformance runner settings
type RunnerConfig struct {
	Workers     int    `toml:"workers"`      // 0 = one goroutine per algorithm
	LogLevel    string `toml:"log_level"`    // logrus level name
	Seed        string `toml:"seed"`         // hex; empty = crypto/rand
	MetricsFile string `toml:"metrics_file"` // Prometheus textfile output (optional)
}

// AlgorithmsConfig adjusts the compiled-in registry
type AlgorithmsConfig struct {
	Disabled   []string `toml:"disabled"`    // algorithms to switch off
	LargeStack []string `toml:"large_stack"` // replaces the built-in large-stack list
	Only       []string `toml:"only"`        // restrict runs to these algorithms

	// Hints sets single resource hints ("none" or "large-stack") on top of
	// the large_stack list
	Hints map[string]string `toml:"hints"`
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(filename string, reg *kem.Registry) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(filename, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse TOML config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown configuration key %q", undecoded[0].String())
	}
	config.largeStackSet = md.IsDefined("algorithms", "large_stack")

	if err := config.Validate(reg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &config, nil
}

// Validate checks the configuration against the compiled-in registry
func (c *Config) Validate(reg *kem.Registry) error {
	if c.Runner.Workers < 0 {
		return errors.Errorf("runner.workers must not be negative, got %d", c.Runner.Workers)
	}
	if c.Runner.LogLevel != "" {
		if _, err := logrusLevel(c.Runner.LogLevel); err != nil {
			return errors.Wrap(err, "runner.log_level")
		}
	}
	if _, err := c.SeedBytes(); err != nil {
		return err
	}

	lists := []struct {
		key   string
		names []string
	}{
		{"algorithms.disabled", c.Algorithms.Disabled},
		{"algorithms.large_stack", c.Algorithms.LargeStack},
		{"algorithms.only", c.Algorithms.Only},
		{"algorithms.hints", c.hintNames()},
	}
	for _, l := range lists {
		for _, name := range l.names {
			if !reg.Contains(name) {
				return errors.Errorf("%s: unknown algorithm %q", l.key, name)
			}
		}
	}
	for _, name := range c.hintNames() {
		if _, err := kem.ParseResourceHint(c.Algorithms.Hints[name]); err != nil {
			return errors.Wrapf(err, "algorithms.hints.%s", name)
		}
	}

	return nil
}

// hintNames returns the keys of algorithms.hints in sorted order
func (c *Config) hintNames() []string {
	names := make([]string, 0, len(c.Algorithms.Hints))
	for name := range c.Algorithms.Hints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SeedBytes decodes runner.seed, nil when unset
func (c *Config) SeedBytes() ([]byte, error) {
	if c.Runner.Seed == "" {
		return nil, nil
	}
	seed, err := hex.DecodeString(c.Runner.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "runner.seed must be hex")
	}
	return seed, nil
}

// Apply derives the registry described by the configuration
func (c *Config) Apply(reg *kem.Registry) *kem.Registry {
	if c.largeStackSet {
		hints := make(map[string]kem.ResourceHint)
		for _, name := range reg.List() {
			hints[name] = kem.HintNone
		}
		for _, name := range c.Algorithms.LargeStack {
			hints[name] = kem.HintLargeStack
		}
		reg = reg.WithHints(hints)
	}
	if len(c.Algorithms.Hints) > 0 {
		hints := make(map[string]kem.ResourceHint, len(c.Algorithms.Hints))
		for name, s := range c.Algorithms.Hints {
			// Validate has rejected unknown hints.
			hints[name], _ = kem.ParseResourceHint(s)
		}
		reg = reg.WithHints(hints)
	}
	if len(c.Algorithms.Disabled) > 0 {
		reg = reg.WithDisabled(c.Algorithms.Disabled...)
	}
	if len(c.Algorithms.Only) > 0 {
		reg = reg.Only(c.Algorithms.Only...)
	}
	return reg
}
