package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollSucceedsImmediately(t *testing.T) {
	calls := 0
	result := Poll(func() bool {
		calls++
		return true
	}, time.Hour, time.Hour)
	assert.Equal(t, PollSucceeded, result)
	assert.Equal(t, 1, calls)
}

func TestPollSucceedsAfterSomeAttempts(t *testing.T) {
	var calls int32
	result := Poll(func() bool {
		return atomic.AddInt32(&calls, 1) >= 3
	}, time.Millisecond, time.Second)
	assert.Equal(t, PollSucceeded, result)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPollTimesOut(t *testing.T) {
	start := time.Now()
	result := Poll(func() bool { return false }, 5*time.Millisecond, 50*time.Millisecond)
	assert.Equal(t, PollTimedOut, result)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollEvaluatesAgainAtDeadline(t *testing.T) {
	calls := 0
	result := Poll(func() bool {
		calls++
		return calls > 1
	}, time.Hour, 0)
	// the final evaluation at the deadline may succeed
	assert.Equal(t, PollSucceeded, result)
	assert.Equal(t, 2, calls)
}

func TestPollResultString(t *testing.T) {
	assert.Equal(t, "succeeded", PollSucceeded.String())
	assert.Equal(t, "timed out", PollTimedOut.String())
}

func TestEventuallyReturnsLastError(t *testing.T) {
	sentinel := errors.New("not yet")
	err := Eventually(30*time.Millisecond, 5*time.Millisecond, func() error { return sentinel })
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "timed out after 30ms")
}

func TestEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Eventually(time.Second, 0, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithDeadlineReturnsActionResult(t *testing.T) {
	sentinel := errors.New("boom")
	assert.Equal(t, sentinel, WithDeadline(time.Second, func(context.Context) error { return sentinel }))
	assert.NoError(t, WithDeadline(time.Second, func(context.Context) error { return nil }))
}

func TestWithDeadlineTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	err := WithDeadline(20*time.Millisecond, func(context.Context) error {
		<-release
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "function took over 20ms", err.Error())
}

func TestWithDeadlineCancelsContext(t *testing.T) {
	err := WithDeadline(20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
}
