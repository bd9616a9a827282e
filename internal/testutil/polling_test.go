package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	err := Poll(context.Background(), func() bool { return calls.Add(1) >= 3 }, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPoll_Timeout(t *testing.T) {
	t.Parallel()
	err := Poll(context.Background(), func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond)
	assert.EqualError(t, err, "condition not met within 20ms")
}

func TestPoll_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	err := Poll(ctx, func() bool {
		cancel()
		return false
	}, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForState(t *testing.T) {
	t.Parallel()
	n := 0
	got, err := WaitForState(context.Background(), func() int {
		n++
		return n
	}, func(v int) bool { return v > 4 }, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	_, err = WaitForState(context.Background(), func() string { return "idle" },
		func(s string) bool { return s == "done" }, 10*time.Millisecond, time.Millisecond)
	assert.ErrorContains(t, err, `(last: idle)`)
}
