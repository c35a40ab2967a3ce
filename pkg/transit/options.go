package transit

import (
	"github.com/bft-labs/wormhole/internal/ports"
	"github.com/bft-labs/wormhole/pkg/log"
)

// Option configures optional behavior of a Transit.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler

	payloads  ports.PayloadAccessor
	manifests ports.ManifestRepository
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler that is called after successful writes,
// deletes and clears. This is the hook for waking a peer process.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// withPayloads replaces the payload accessor. Tests use it to inject failures.
func withPayloads(p ports.PayloadAccessor) Option {
	return func(o *options) {
		o.payloads = p
	}
}

// withManifests replaces the manifest repository. Tests use it to inject failures.
func withManifests(m ports.ManifestRepository) Option {
	return func(o *options) {
		o.manifests = m
	}
}
