package chat

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval matches the showroom site's two second refresh
const DefaultPollInterval = 2 * time.Second

// SessionSource delivers fresh copies of the session collection. A role
// subscribes once and is called back whenever the collection may have
// changed. The returned stop func must be called on teardown; it blocks until
// no further callbacks can run.
type SessionSource interface {
	Subscribe(ctx context.Context, fn func([]Session)) (stop func())
}

// PollingSource re-reads a Store on a fixed interval
type PollingSource struct {
	Store    *Store
	Interval time.Duration
}

// NewPollingSource creates a PollingSource. A non-positive interval uses
// DefaultPollInterval.
func NewPollingSource(store *Store, interval time.Duration) *PollingSource {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingSource{Store: store, Interval: interval}
}

// Subscribe starts a ticker goroutine that calls fn with the loaded sessions.
// Ticks whose read fails are skipped. It stops when ctx is cancelled or stop
// is called.
func (p *PollingSource) Subscribe(ctx context.Context, fn func([]Session)) func() {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions, err := p.Store.load()
				// Cancellation may have raced the tick
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					p.Store.logger.Warn("chat: poll skipped", "error", err)
					continue
				}
				fn(sessions)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
