package cliconfig

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("channel", "inbox").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "inbox") {
		t.Errorf("warn line missing: %q", out)
	}

	if _, err := newLogger(&buf, "loud"); err == nil {
		t.Error("newLogger() expected error for unknown level")
	}
}
