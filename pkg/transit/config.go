package transit

import (
	"fmt"
	"time"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/coord"
)

// WriteMode selects how Write treats an existing payload file.
type WriteMode = coord.WriteMode

const (
	// OverwriteAtomically replaces an existing payload transactionally.
	OverwriteAtomically = coord.OverwriteAtomically

	// FailIfExists rejects a write whose payload file is already present.
	FailIfExists = coord.FailIfExists
)

// ParseWriteMode parses "overwrite-atomically" or "fail-if-exists".
func ParseWriteMode(s string) (WriteMode, error) {
	return coord.ParseWriteMode(s)
}

// DefaultLockTimeout bounds how long an operation waits for a file lock.
const DefaultLockTimeout = coord.DefaultTimeout

// Config holds the configuration of a Transit.
type Config struct {
	// Root is the shared directory every cooperating process uses. Required.
	Root string

	// LockTimeout bounds each lock acquisition. Default: 5s
	LockTimeout time.Duration

	// WriteMode is the mode used by Write. Default: OverwriteAtomically
	WriteMode WriteMode
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.LockTimeout == 0 {
		c.LockTimeout = DefaultLockTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is required", domain.ErrInvalidConfig)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("%w: lock timeout must not be negative", domain.ErrInvalidConfig)
	}
	switch c.WriteMode {
	case OverwriteAtomically, FailIfExists:
	default:
		return fmt.Errorf("%w: unknown write mode %s", domain.ErrInvalidConfig, c.WriteMode)
	}
	return nil
}
