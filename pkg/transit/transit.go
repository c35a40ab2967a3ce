package transit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/internal/ports"
	"github.com/bft-labs/wormhole/pkg/coord"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/manifest"
	"github.com/bft-labs/wormhole/pkg/store"
)

// Transit exchanges messages through a shared root directory.
// A Transit is safe for concurrent use, and any number of processes may use
// their own Transit on the same root at the same time.
type Transit struct {
	config    Config
	store     *store.Store
	payloads  ports.PayloadAccessor
	manifests ports.ManifestRepository
	logger    log.Logger
	events    eventEmitter
}

// New creates a Transit for cfg.Root, creating the directory if it is missing.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Transit, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrNoop(o.logger)

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %w", domain.ErrIO, cfg.Root, err)
	}

	t := &Transit{
		config:    cfg,
		store:     store.New(cfg.Root),
		payloads:  o.payloads,
		manifests: o.manifests,
		logger:    logger,
		events:    eventEmitter{handler: o.eventHandler},
	}

	if t.payloads == nil || t.manifests == nil {
		accessor := coord.New(
			coord.WithTimeout(cfg.LockTimeout),
			coord.WithLogger(logger),
		)
		if t.payloads == nil {
			t.payloads = accessor
		}
		if t.manifests == nil {
			t.manifests = manifest.NewRepository(accessor, t.store,
				manifest.WithLogger(logger),
				manifest.WithRecover(t.recoverManifest),
			)
		}
	}
	return t, nil
}

// Config returns the effective configuration.
func (t *Transit) Config() Config {
	return t.config
}

// Root returns the shared root directory.
func (t *Transit) Root() string {
	return t.store.Root()
}

// Write stores payload as identifier in channel using the configured write
// mode, then lists identifier in the channel's manifest.
//
// If the payload is stored but the manifest update fails, the error is
// returned and the payload stays on disk unlisted. Writing the same
// identifier again repairs this.
func (t *Transit) Write(ctx context.Context, channel, identifier string, payload []byte) error {
	return t.WriteWithMode(ctx, channel, identifier, payload, t.config.WriteMode)
}

// WriteWithMode is Write with an explicit write mode.
//
// With FailIfExists an existing payload is left in place and ErrAlreadyExists
// is returned; the identifier is still listed in the manifest so an earlier
// interrupted write becomes visible.
func (t *Transit) WriteWithMode(ctx context.Context, channel, identifier string, payload []byte, mode WriteMode) error {
	if mode != OverwriteAtomically && mode != FailIfExists {
		return fmt.Errorf("%w: unknown write mode %s", domain.ErrInvalidConfig, mode)
	}
	path, err := t.store.PathFor(channel, identifier)
	if err != nil {
		return err
	}

	writeErr := t.payloads.Write(ctx, path, payload, mode)
	if writeErr != nil && !errors.Is(writeErr, domain.ErrAlreadyExists) {
		return writeErr
	}

	listed, err := t.manifests.Add(ctx, channel, identifier)
	if err != nil {
		t.logger.Warn("payload stored but not listed",
			log.Channel(channel),
			log.Identifier(identifier),
			log.Err(err))
		return errors.Join(writeErr, err)
	}
	if writeErr != nil {
		return writeErr
	}

	t.logger.Debug("message written",
		log.Channel(channel),
		log.Identifier(identifier),
		log.Int("bytes", len(payload)),
		log.Bool("listed", listed))
	t.events.onWrite(WriteEvent{
		Channel:    channel,
		Identifier: identifier,
		Bytes:      len(payload),
		Listed:     listed,
	})
	return nil
}

// Read returns the payload of identifier in channel. The manifest is not
// consulted: a missing payload file yields ErrNotFound even if the
// identifier is still listed.
func (t *Transit) Read(ctx context.Context, channel, identifier string) ([]byte, error) {
	path, err := t.store.PathFor(channel, identifier)
	if err != nil {
		return nil, err
	}
	return t.payloads.Read(ctx, path)
}

// List returns the identifiers listed for channel in the order they were
// first written. A channel that was never written is empty. An undecodable
// manifest is reported to the logger and the event handler and the channel
// is treated as empty.
func (t *Transit) List(ctx context.Context, channel string) ([]string, error) {
	ids, err := t.manifests.List(ctx, channel)
	if errors.Is(err, domain.ErrCorruptManifest) {
		t.logger.Warn("manifest corrupt, treating channel as empty",
			log.Channel(channel),
			log.Err(err))
		t.events.onCorruptManifest(CorruptManifestEvent{Channel: channel, Err: err})
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes the payload of identifier, then removes identifier from the
// manifest. It returns ErrNotFound only if there was neither a payload nor a
// manifest entry.
func (t *Transit) Delete(ctx context.Context, channel, identifier string) error {
	path, err := t.store.PathFor(channel, identifier)
	if err != nil {
		return err
	}

	removed, err := t.payloads.Delete(ctx, path)
	if err != nil {
		return err
	}
	unlisted, err := t.manifests.Remove(ctx, channel, identifier)
	if err != nil {
		return err
	}
	if !removed && !unlisted {
		return fmt.Errorf("%w: %s in channel %s", domain.ErrNotFound, identifier, channel)
	}

	t.logger.Debug("message deleted",
		log.Channel(channel),
		log.Identifier(identifier),
		log.Bool("payload_removed", removed))
	t.events.onDelete(DeleteEvent{
		Channel:        channel,
		Identifier:     identifier,
		PayloadRemoved: removed,
	})
	return nil
}

// Clear deletes every payload listed in the channel's manifest and empties
// the manifest. The manifest stays locked for the whole pass, so no write can
// be listed halfway through. Entries whose payload could not be deleted stay
// listed and their errors are returned.
func (t *Transit) Clear(ctx context.Context, channel string) ([]string, error) {
	removed := []string{}
	_, err := t.manifests.Update(ctx, channel, func(m *domain.Manifest) (bool, error) {
		var errs []error
		changed := false
		for _, id := range m.List() {
			path, err := t.store.PathFor(channel, id)
			if err != nil {
				// Unaddressable entries have no payload to delete.
				changed = m.Remove(id) || changed
				continue
			}
			if _, err := t.payloads.Delete(ctx, path); err != nil {
				errs = append(errs, err)
				continue
			}
			changed = m.Remove(id) || changed
			removed = append(removed, id)
		}
		return changed, errors.Join(errs...)
	})
	if err != nil {
		return removed, err
	}

	t.logger.Debug("channel cleared",
		log.Channel(channel),
		log.Int("removed", len(removed)))
	t.events.onClear(ClearEvent{Channel: channel, Removed: removed})
	return removed, nil
}

// Channels lists every channel that has a directory under the root.
func (t *Transit) Channels(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	channels, err := t.store.Channels()
	if err != nil {
		return nil, fmt.Errorf("%w: list channels in %s: %w", domain.ErrIO, t.store.Root(), err)
	}
	return channels, nil
}

// ClearAll clears every channel under the root. It keeps going after a
// failed channel and returns all errors joined.
func (t *Transit) ClearAll(ctx context.Context) error {
	channels, err := t.Channels(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.Clear(ctx, channel); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", channel, err))
		}
	}
	return errors.Join(errs...)
}

// Replay calls fn for every listed message of channel in manifest order.
// Entries whose payload is gone are skipped. Replay stops at the first error
// returned by fn or by a read.
func (t *Transit) Replay(ctx context.Context, channel string, fn func(identifier string, payload []byte) error) error {
	ids, err := t.List(ctx, channel)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := t.Read(ctx, channel, id)
		if errors.Is(err, domain.ErrNotFound) {
			t.logger.Debug("listed message has no payload, skipping",
				log.Channel(channel),
				log.Identifier(id))
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(id, payload); err != nil {
			return err
		}
	}
	return nil
}

// eventEmitter calls the optional EventHandler.
type eventEmitter struct {
	handler EventHandler
}

func (e eventEmitter) onWrite(ev WriteEvent) {
	if e.handler != nil {
		e.handler.OnWrite(ev)
	}
}

func (e eventEmitter) onDelete(ev DeleteEvent) {
	if e.handler != nil {
		e.handler.OnDelete(ev)
	}
}

func (e eventEmitter) onClear(ev ClearEvent) {
	if e.handler != nil {
		e.handler.OnClear(ev)
	}
}

func (e eventEmitter) onCorruptManifest(ev CorruptManifestEvent) {
	if e.handler != nil {
		e.handler.OnCorruptManifest(ev)
	}
}
