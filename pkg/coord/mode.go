package coord

import (
	"fmt"

	"github.com/bft-labs/wormhole/internal/domain"
)

// WriteMode selects how a write treats an existing target file.
type WriteMode int

const (
	// OverwriteAtomically replaces any existing file transactionally:
	// the temporary file is synced, renamed over the target, and the
	// directory is synced.
	OverwriteAtomically WriteMode = iota

	// FailIfExists rejects the write with domain.ErrAlreadyExists when the
	// target is already present.
	FailIfExists
)

// String returns the configuration spelling of the mode.
func (m WriteMode) String() string {
	switch m {
	case OverwriteAtomically:
		return "overwrite-atomically"
	case FailIfExists:
		return "fail-if-exists"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// ParseWriteMode parses a configuration value. Empty means OverwriteAtomically.
func ParseWriteMode(s string) (WriteMode, error) {
	switch s {
	case "", "overwrite-atomically", "overwrite":
		return OverwriteAtomically, nil
	case "fail-if-exists":
		return FailIfExists, nil
	default:
		return 0, fmt.Errorf("%w: unknown write mode %q", domain.ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m WriteMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *WriteMode) UnmarshalText(b []byte) error {
	parsed, err := ParseWriteMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
