package framework

import (
	"context"
	"time"
)

// Ticker calls Fire periodically until canceled.
type Ticker struct {
	Interval time.Duration
	Fire     func(time.Time)

	name string
}

// NewTicker creates a named Ticker.
func NewTicker(name string, interval time.Duration, fire func(time.Time)) *Ticker {
	return &Ticker{name: name, Interval: interval, Fire: fire}
}

// Name implements Named.
func (t *Ticker) Name() string {
	return t.name
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	interval := t.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.Fire(now)
		}
	}
}
