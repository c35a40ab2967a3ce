package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Root:          "/test/root",
				LockTimeout:   "3s",
				WriteMode:     "fail-if-exists",
				LogLevel:      "warn",
				WatchDebounce: "75ms",
				WatchPoll:     "10s",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Root:          "/test/root",
				LockTimeout:   3 * time.Second,
				WriteMode:     "fail-if-exists",
				LogLevel:      "warn",
				WatchDebounce: 75 * time.Millisecond,
				WatchPoll:     10 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Root:        "/config/root",
				LockTimeout: "1s",
			},
			changed: map[string]bool{"root": true},
			initial: Config{
				Root:        "/flag/root",
				LockTimeout: 5 * time.Second,
			},
			expected: Config{
				Root:        "/flag/root", // unchanged because flag was set
				LockTimeout: time.Second,
			},
			wantErr: false,
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
			wantErr:    false,
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				LockTimeout: "soon",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	// Create a temporary TOML file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
root = "/srv/shared"
lock_timeout = "2s"
write_mode = "fail-if-exists"
log_level = "debug"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Root != "/srv/shared" {
		t.Errorf("Root = %v, want /srv/shared", fc.Root)
	}
	if fc.LockTimeout != "2s" {
		t.Errorf("LockTimeout = %v, want 2s", fc.LockTimeout)
	}
	if fc.WriteMode != "fail-if-exists" {
		t.Errorf("WriteMode = %v, want fail-if-exists", fc.WriteMode)
	}
	if fc.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", fc.LogLevel)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
root = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".wormhole") {
		t.Errorf("DefaultConfigPath() = %v, should contain .wormhole", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
