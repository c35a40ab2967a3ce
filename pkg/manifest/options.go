package manifest

import (
	"context"

	"github.com/bft-labs/wormhole/pkg/log"
)

// RecoverFunc rebuilds the identifier list of a channel whose manifest file
// cannot be decoded. It runs while the manifest lock is held.
type RecoverFunc func(ctx context.Context, channel string) ([]string, error)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for recovery warnings.
func WithLogger(l log.Logger) Option {
	return func(r *Repository) {
		r.logger = log.OrNoop(l)
	}
}

// WithRecover sets how a corrupt manifest is rebuilt inside Add and Remove.
func WithRecover(fn RecoverFunc) Option {
	return func(r *Repository) {
		r.recover = fn
	}
}

// withAfterRead installs a hook that runs between the read and the write of
// every update cycle. Tests use it to widen the race window.
func withAfterRead(fn func()) Option {
	return func(r *Repository) {
		r.afterRead = fn
	}
}
