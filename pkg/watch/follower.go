package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/wormhole/internal/domain"
	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/store"
)

// Source is the part of a transit.Transit a Follower reads from.
type Source interface {
	Root() string
	List(ctx context.Context, channel string) ([]string, error)
	Read(ctx context.Context, channel, identifier string) ([]byte, error)
}

// Handler receives one message. Returning an error stops the Follower.
type Handler func(ctx context.Context, identifier string, payload []byte) error

// Config holds configuration options for a Follower.
type Config struct {
	// DebounceDelay is how long to wait after the last manifest change
	// before listing the channel.
	// Default: 50 milliseconds
	DebounceDelay time.Duration

	// PollInterval lists the channel periodically even without file events,
	// for file systems that do not report changes made by other hosts.
	// Default: 0 (disabled)
	PollInterval time.Duration

	// SkipExisting marks the messages listed at start as delivered.
	SkipExisting bool

	// RedeliverRewrites delivers a listed message again when its payload
	// file is replaced. Without it each identifier is delivered once per
	// listing, since rewriting a listed identifier leaves the manifest alone.
	// Delivery of rewrites is at least once: a rewrite racing a read can be
	// delivered twice.
	RedeliverRewrites bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 50 * time.Millisecond,
	}
}

// Option configures a Follower.
type Option func(*Follower)

// WithLogger sets the logger for sync failures.
func WithLogger(l log.Logger) Option {
	return func(f *Follower) {
		f.logger = log.OrNoop(l)
	}
}

// Follower delivers the messages of one channel as they are listed.
// By default a message is delivered once for as long as it stays listed; see
// Config.RedeliverRewrites.
type Follower struct {
	source  Source
	store   *store.Store
	channel string

	debounceDelay     time.Duration
	pollInterval      time.Duration
	skipExisting      bool
	redeliverRewrites bool
	logger            log.Logger

	mu       sync.Mutex
	debounce *time.Timer
	// delivered maps each delivered identifier to the payload file it was
	// read from. The file info is only recorded with RedeliverRewrites.
	delivered map[string]os.FileInfo
}

// New creates a Follower for channel.
func New(source Source, channel string, cfg Config, opts ...Option) *Follower {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 50 * time.Millisecond
	}
	f := &Follower{
		source:            source,
		store:             store.New(source.Root()),
		channel:           channel,
		debounceDelay:     cfg.DebounceDelay,
		pollInterval:      cfg.PollInterval,
		skipExisting:      cfg.SkipExisting,
		redeliverRewrites: cfg.RedeliverRewrites,
		logger:            log.NewNoopLogger(),
		delivered:         make(map[string]os.FileInfo),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run delivers messages to handler until ctx is done or handler fails.
// The channel directory is created if it does not exist yet so that it can
// be watched. Run returns nil when ctx is canceled.
func (f *Follower) Run(ctx context.Context, handler Handler) error {
	dir, err := f.store.ChannelDir(f.channel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", domain.ErrIO, dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Buffered so a pending sync is never lost and timers never block.
	trigger := make(chan struct{}, 1)
	defer f.stopDebounce()

	if f.skipExisting {
		ids, err := f.source.List(ctx, f.channel)
		if err != nil {
			return err
		}
		for _, id := range ids {
			f.delivered[id] = f.payloadInfo(id)
		}
	} else if err := f.sync(ctx, handler); err != nil {
		return ignoreCanceled(ctx, err)
	}

	var poll <-chan time.Time
	if f.pollInterval > 0 {
		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if f.relevant(event) {
				f.debounceSync(trigger)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watcher error", log.Channel(f.channel), log.Err(err))

		case <-poll:
			f.signal(trigger)

		case <-trigger:
			if err := f.sync(ctx, handler); err != nil {
				return ignoreCanceled(ctx, err)
			}
		}
	}
}

// relevant reports whether event may change what sync would deliver.
func (f *Follower) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if name == store.ManifestName {
		return true
	}
	return f.redeliverRewrites && strings.HasSuffix(name, store.PayloadExt)
}

// sync lists the channel and delivers every identifier not delivered yet.
// Identifiers that are no longer listed are forgotten so a later rewrite is
// delivered again.
func (f *Follower) sync(ctx context.Context, handler Handler) error {
	ids, err := f.source.List(ctx, f.channel)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Lock timeouts and transient I/O errors are retried on the next event.
		f.logger.Warn("list failed", log.Channel(f.channel), log.Err(err))
		return nil
	}

	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}
	for id := range f.delivered {
		if !listed[id] {
			delete(f.delivered, id)
		}
	}

	for _, id := range ids {
		// Stat before reading so a rewrite that lands during the read is
		// seen as a change on the next sync.
		info := f.payloadInfo(id)
		if prev, ok := f.delivered[id]; ok && !f.rewritten(prev, info) {
			continue
		}
		payload, err := f.source.Read(ctx, f.channel, id)
		if errors.Is(err, domain.ErrNotFound) {
			f.delivered[id] = nil
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("read failed", log.Channel(f.channel), log.Identifier(id), log.Err(err))
			continue
		}
		if err := handler(ctx, id, payload); err != nil {
			return err
		}
		f.delivered[id] = info
	}
	return nil
}

// payloadInfo stats the payload file of id when rewrites are tracked.
// It returns nil when they are not or the file cannot be stat'ed.
func (f *Follower) payloadInfo(id string) os.FileInfo {
	if !f.redeliverRewrites {
		return nil
	}
	path, err := f.store.PathFor(f.channel, id)
	if err != nil {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return info
}

// rewritten reports whether the payload file changed since prev was taken.
// Writes replace the file, so a rewrite shows up as a different file even
// when size and modification time happen to match.
func (f *Follower) rewritten(prev, cur os.FileInfo) bool {
	if !f.redeliverRewrites || cur == nil {
		return false
	}
	if prev == nil {
		return true
	}
	return !os.SameFile(prev, cur) || !prev.ModTime().Equal(cur.ModTime()) || prev.Size() != cur.Size()
}

func (f *Follower) debounceSync(trigger chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.debounce != nil {
		f.debounce.Stop()
	}
	f.debounce = time.AfterFunc(f.debounceDelay, func() {
		f.signal(trigger)
	})
}

func (f *Follower) stopDebounce() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debounce != nil {
		f.debounce.Stop()
	}
}

func (f *Follower) signal(trigger chan struct{}) {
	select {
	case trigger <- struct{}{}:
	default:
	}
}

// ignoreCanceled treats the end of ctx as a normal stop.
func ignoreCanceled(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
