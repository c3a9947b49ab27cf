package simulation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Ticker runs registered callbacks periodically.
// Callbacks run sequentially in name order within one goroutine.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type Ticker struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func(context.Context)
}

// NewTicker returns a Ticker that fires every interval.
//
// Precondition: interval must be > 0.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("simulation.NewTicker: interval must be > 0")
	}
	return &Ticker{
		interval: interval,
		ticks:    make(map[string]func(context.Context)),
	}
}

// Register registers a callback under name. Replaces any existing callback.
func (t *Ticker) Register(name string, fn func(context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (t *Ticker) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, name)
}

// Run fires callbacks until ctx is cancelled. It blocks.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, fn := range t.snapshot() {
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}
}

// Start runs Run in a new goroutine.
func (t *Ticker) Start(ctx context.Context) {
	go t.Run(ctx)
}

func (t *Ticker) snapshot() []func(context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.ticks))
	for name := range t.ticks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]func(context.Context), len(names))
	for i, name := range names {
		out[i] = t.ticks[name]
	}
	return out
}
