package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure mapping to stepbar.toml.
type Config struct {
	Run   RunConfig    `toml:"run"`
	Log   LogConfig    `toml:"log"`
	Steps []StepConfig `toml:"steps"`
}

// RunConfig maps to the [run] section.
type RunConfig struct {
	Name           string `toml:"name"`
	SampleInterval string `toml:"sample_interval"`
}

// LogConfig maps to the [log] section.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StepConfig maps to one [[steps]] entry. A step either runs Command or
// simulates work: a fixed Duration, or a random delay between MinDuration and
// MaxDuration. Fail makes a simulated step return an error with that message
// once its delay has elapsed.
type StepConfig struct {
	Name        string   `toml:"name"`
	Duration    string   `toml:"duration,omitempty"`
	MinDuration string   `toml:"min_duration,omitempty"`
	MaxDuration string   `toml:"max_duration,omitempty"`
	Command     []string `toml:"command,omitempty"`
	Fail        string   `toml:"fail,omitempty"`
}

// IsCommand reports whether the step runs an external command.
func (s StepConfig) IsCommand() bool { return len(s.Command) > 0 }

// Delay returns the simulated delay bounds. For a fixed Duration both bounds
// are equal; with neither set both are zero.
func (s StepConfig) Delay() (lo, hi time.Duration, err error) {
	if s.Duration != "" {
		d, err := parseDuration(s.Duration)
		if err != nil {
			return 0, 0, fmt.Errorf("step %q: duration: %w", s.Name, err)
		}
		return d, d, nil
	}
	if s.MinDuration != "" {
		if lo, err = parseDuration(s.MinDuration); err != nil {
			return 0, 0, fmt.Errorf("step %q: min_duration: %w", s.Name, err)
		}
	}
	hi = lo
	if s.MaxDuration != "" {
		if hi, err = parseDuration(s.MaxDuration); err != nil {
			return 0, 0, fmt.Errorf("step %q: max_duration: %w", s.Name, err)
		}
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("step %q: max_duration %s is less than min_duration %s", s.Name, hi, lo)
	}
	return lo, hi, nil
}

// SampleIntervalDuration parses run.sample_interval.
func (c *Config) SampleIntervalDuration() (time.Duration, error) {
	d, err := parseDuration(c.Run.SampleInterval)
	if err != nil {
		return 0, fmt.Errorf("run.sample_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("run.sample_interval: must be positive, got %s", d)
	}
	return d, nil
}

// parseDuration wraps time.ParseDuration and rejects negative values.
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}
