package coord

import (
	"os"
	"time"

	"github.com/bft-labs/wormhole/pkg/log"
)

// DefaultTimeout bounds lock acquisition when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Option configures an Accessor.
type Option func(*Accessor)

// WithTimeout bounds how long a lock acquisition may wait.
// Zero or negative values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(a *Accessor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger used for lock contention and cleanup messages.
func WithLogger(l log.Logger) Option {
	return func(a *Accessor) {
		a.logger = log.OrNoop(l)
	}
}

// WithFileMode sets the permission bits of data and lock files.
func WithFileMode(mode os.FileMode) Option {
	return func(a *Accessor) {
		a.fileMode = mode
	}
}

// WithDirMode sets the permission bits of directories created by writes.
func WithDirMode(mode os.FileMode) Option {
	return func(a *Accessor) {
		a.dirMode = mode
	}
}

// WithPollInterval sets the initial and maximum delay between lock attempts.
func WithPollInterval(initial, max time.Duration) Option {
	return func(a *Accessor) {
		if initial > 0 && max >= initial {
			a.pollInitial = initial
			a.pollMax = max
		}
	}
}

func defaultAccessor() *Accessor {
	return &Accessor{
		timeout:     DefaultTimeout,
		logger:      log.NewNoopLogger(),
		fileMode:    0o644,
		dirMode:     0o755,
		pollInitial: DefaultPollInitial,
		pollMax:     DefaultPollMax,
	}
}
