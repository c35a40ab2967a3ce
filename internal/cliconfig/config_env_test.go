package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"WORMHOLE_ROOT":           "/env/root",
				"WORMHOLE_LOCK_TIMEOUT":   "2s",
				"WORMHOLE_WRITE_MODE":     "fail-if-exists",
				"WORMHOLE_LOG_LEVEL":      "debug",
				"WORMHOLE_WATCH_DEBOUNCE": "20ms",
				"WORMHOLE_WATCH_POLL":     "1m",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Root:          "/env/root",
				LockTimeout:   2 * time.Second,
				WriteMode:     "fail-if-exists",
				LogLevel:      "debug",
				WatchDebounce: 20 * time.Millisecond,
				WatchPoll:     time.Minute,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"WORMHOLE_ROOT":       "/env/root",
				"WORMHOLE_WRITE_MODE": "fail-if-exists",
			},
			changed: map[string]bool{"root": true},
			initial: Config{
				Root: "/flag/root",
			},
			expected: Config{
				Root:      "/flag/root",
				WriteMode: "fail-if-exists",
			},
			wantErr: false,
		},
		{
			name: "lock timeout in bare milliseconds",
			envVars: map[string]string{
				"WORMHOLE_LOCK_TIMEOUT": "1500",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				LockTimeout: 1500 * time.Millisecond,
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"WORMHOLE_WATCH_POLL": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for non-positive milliseconds",
			envVars: map[string]string{
				"WORMHOLE_LOCK_TIMEOUT": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			// Clean up after test
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
