package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/transit"
	"github.com/bft-labs/wormhole/pkg/watch"
)

// Config holds CLI configuration for wormhole.
type Config struct {
	Root        string
	LockTimeout time.Duration
	WriteMode   string
	LogLevel    string

	WatchDebounce time.Duration
	WatchPoll     time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		LockTimeout:   transit.DefaultLockTimeout,
		WriteMode:     transit.OverwriteAtomically.String(),
		LogLevel:      "info",
		WatchDebounce: watch.DefaultConfig().DebounceDelay,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive")
	}
	if _, err := transit.ParseWriteMode(c.WriteMode); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.WatchPoll < 0 {
		return fmt.Errorf("watch poll interval must not be negative")
	}
	return nil
}

// Transit returns the library configuration described by c.
func (c *Config) Transit() (transit.Config, error) {
	mode, err := transit.ParseWriteMode(c.WriteMode)
	if err != nil {
		return transit.Config{}, err
	}
	return transit.Config{
		Root:        c.Root,
		LockTimeout: c.LockTimeout,
		WriteMode:   mode,
	}, nil
}

// Watch returns the follower configuration described by c.
func (c *Config) Watch() watch.Config {
	cfg := watch.DefaultConfig()
	if c.WatchDebounce > 0 {
		cfg.DebounceDelay = c.WatchDebounce
	}
	cfg.PollInterval = c.WatchPoll
	return cfg
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setMillisFromString accepts a duration string or a bare number of milliseconds.
func (s *configSetter) setMillisFromString(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		if ms <= 0 {
			return fmt.Errorf("parse %s: must be positive", flag)
		}
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	return s.setDuration(flag, value, dst)
}
