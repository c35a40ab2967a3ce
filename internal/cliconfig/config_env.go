package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (WORMHOLE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("root", os.Getenv("WORMHOLE_ROOT"), &cfg.Root)
	s.setString("write-mode", os.Getenv("WORMHOLE_WRITE_MODE"), &cfg.WriteMode)
	s.setString("log-level", os.Getenv("WORMHOLE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setMillisFromString("lock-timeout", os.Getenv("WORMHOLE_LOCK_TIMEOUT"), &cfg.LockTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("WORMHOLE_WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("WORMHOLE_WATCH_POLL"), &cfg.WatchPoll); err != nil {
		return err
	}

	return nil
}
