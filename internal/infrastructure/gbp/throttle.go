package gbp

import (
	"context"
	"sync"
	"time"
)

// SpacingThrottler enforces a minimum wall-clock spacing between upstream
// call starts. One instance guards the whole process: the upstream enforces a
// single project-wide quota, so a per-endpoint split would only invite 429s.
//
// Slot reservation happens under the lock; the wait itself does not, so
// concurrent callers for unrelated work are never serialized beyond the one
// shared upstream slot.
type SpacingThrottler struct {
	mu         sync.Mutex
	minSpacing time.Duration
	nextSlot   time.Time
	now        func() time.Time
}

// NewSpacingThrottler creates a throttler with the given minimum spacing.
func NewSpacingThrottler(minSpacing time.Duration) *SpacingThrottler {
	return &SpacingThrottler{minSpacing: minSpacing, now: time.Now}
}

// Throttle implements ports.Throttler. It blocks until the caller's reserved
// slot arrives, honoring ctx cancellation. A canceled wait forfeits the slot.
func (t *SpacingThrottler) Throttle(ctx context.Context) error {
	t.mu.Lock()
	now := t.now()
	slot := t.nextSlot
	if slot.Before(now) {
		slot = now
	}
	t.nextSlot = slot.Add(t.minSpacing)
	t.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
