package coord

import (
	"math/rand"
	"time"
)

// Lock polling bounds.
const (
	DefaultPollInitial = time.Millisecond
	DefaultPollMax     = 50 * time.Millisecond
)

// backoff spaces out lock attempts with exponential growth and jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Next returns the delay before the next attempt and grows the interval.
func (b *backoff) Next() time.Duration {
	// ±20% so contending processes drift apart
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	wait := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return wait
}

