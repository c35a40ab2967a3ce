package janitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/wormhole/pkg/log"
	"github.com/bft-labs/wormhole/pkg/transit"
)

// Target is the part of a Transit the janitor needs.
type Target interface {
	Channels(ctx context.Context) ([]string, error)
	Repair(ctx context.Context, channel string) (transit.RepairReport, error)
}

var _ Target = (*transit.Transit)(nil)

// Config holds configuration for a Janitor.
type Config struct {
	// Interval is how often every channel is repaired.
	// Default: 10 minutes
	Interval time.Duration

	// Channels limits repairs to these channels. Empty means every channel
	// under the root, discovered again on each pass.
	Channels []string

	// RunImmediately runs a pass on Start instead of waiting one interval.
	RunImmediately bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       10 * time.Minute,
		RunImmediately: true,
	}
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithLogger sets the logger for pass results and failures.
func WithLogger(l log.Logger) Option {
	return func(j *Janitor) {
		j.logger = log.OrNoop(l)
	}
}

// Janitor repairs channels in the background.
type Janitor struct {
	target Target

	interval       time.Duration
	channels       []string
	runImmediately bool
	logger         log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Janitor for target.
func New(target Target, cfg Config, opts ...Option) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	j := &Janitor{
		target:         target,
		interval:       cfg.Interval,
		channels:       append([]string(nil), cfg.Channels...),
		runImmediately: cfg.RunImmediately,
		logger:         log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start launches the repair loop. It returns an error if the janitor is
// already running.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return errors.New("janitor already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.loop(loopCtx)

	j.logger.Info("janitor started", log.Duration("interval", j.interval))
	return nil
}

// Shutdown stops the repair loop and waits for a running pass to finish or
// for ctx to be done.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Janitor) loop(ctx context.Context) {
	defer j.wg.Done()

	if j.runImmediately {
		j.pass(ctx)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.pass(ctx)
		}
	}
}

// pass runs RunOnce and logs instead of returning its error.
func (j *Janitor) pass(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
		j.logger.Error("janitor pass failed", log.Err(err))
	}
}

// RunOnce repairs every configured channel once and returns the reports of
// the channels that changed, keyed by channel. A failing channel does not stop
// the pass; all failures are returned joined.
func (j *Janitor) RunOnce(ctx context.Context) (map[string]transit.RepairReport, error) {
	channels := j.channels
	if len(channels) == 0 {
		var err error
		if channels, err = j.target.Channels(ctx); err != nil {
			return nil, err
		}
	}

	reports := make(map[string]transit.RepairReport)
	var errs []error
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := j.target.Repair(ctx, ch)
		if err != nil {
			errs = append(errs, fmt.Errorf("repair %s: %w", ch, err))
			continue
		}
		if report.Changed() || report.StaleTemps > 0 {
			reports[ch] = report
		}
	}

	j.logger.Debug("janitor pass complete",
		log.Int("channels", len(channels)),
		log.Int("repaired", len(reports)),
		log.Int("failed", len(errs)))
	return reports, errors.Join(errs...)
}
