package player

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the time base for playback.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time
	// SleepUntil blocks until deadline has passed or ctx is done.
	SleepUntil(ctx context.Context, deadline time.Time) error
}

// SystemClock is the real clock. time.Now carries a monotonic reading and
// every deadline is derived from it, so wall clock adjustments during
// playback do not move deadlines.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VirtualClock only moves when told to. SleepUntil jumps straight to the
// deadline, which makes playback run instantly while preserving offsets.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock returns a VirtualClock reading start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if deadline.After(c.now) {
		c.now = deadline
	}
	return nil
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
