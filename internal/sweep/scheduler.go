package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs a function on a recurring wall-clock cadence. The driver
// never depends on which primitive invokes it.
type Scheduler interface {
	// RunEvery invokes fn on the interval until ctx is cancelled.
	RunEvery(ctx context.Context, interval time.Duration, fn func(context.Context))
	// RunDailyAt invokes fn once a day at the given local hour until ctx
	// is cancelled.
	RunDailyAt(ctx context.Context, hour int, fn func(context.Context))
}

// TickerScheduler is a Scheduler on time.Ticker with a non-overlap
// guard: a run still in flight when the next tick fires makes that tick a
// no-op.
type TickerScheduler struct {
	loc *time.Location
}

func NewTickerScheduler(loc *time.Location) *TickerScheduler {
	return &TickerScheduler{loc: loc}
}

func (s *TickerScheduler) RunEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var mu sync.Mutex
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !mu.TryLock() {
				slog.WarnContext(ctx, "previous sweep still running, skipping tick")
				continue
			}
			go func() {
				defer mu.Unlock()
				fn(ctx)
			}()
		}
	}
}

func (s *TickerScheduler) RunDailyAt(ctx context.Context, hour int, fn func(context.Context)) {
	for {
		now := time.Now().In(s.loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, s.loc)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fn(ctx)
		}
	}
}
