package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/juiceplant/pkg/types"
	"github.com/stretchr/testify/require"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper wraps quartz.Mock to implement our Clock interface
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// After returns a channel that delivers the current time after the duration
func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	timer := c.Mock.NewTimer(d)
	return timer.C
}

// Now returns the current time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a new Timer
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	timer := c.Mock.NewTimer(d)
	return &TimerWrapper{timer: timer}
}

// TimerWrapper wraps quartz timer
type TimerWrapper struct {
	timer *quartz.Timer
}

func (t *TimerWrapper) C() <-chan time.Time {
	return t.timer.C
}

func (t *TimerWrapper) Stop() bool {
	return t.timer.Stop()
}

func (t *TimerWrapper) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

// WithMockClock creates a context with mock clock
func WithMockClock(ctx context.Context, mock *quartz.Mock) context.Context {
	return types.WithClock(ctx, NewClockWrapper(mock))
}

// WaitForTimer blocks until the mock has a pending timer and returns the
// duration until it fires
func WaitForTimer(t testing.TB, mock *quartz.Mock) time.Duration {
	t.Helper()

	var next time.Duration
	require.Eventually(t, func() bool {
		d, ok := mock.Peek()
		next = d
		return ok
	}, 2*time.Second, time.Millisecond, "no timer registered on mock clock")
	return next
}

// FireNextTimer waits for a pending timer, advances the mock to it and waits
// until its channel has been served. It returns the advanced duration.
func FireNextTimer(ctx context.Context, t testing.TB, mock *quartz.Mock) time.Duration {
	t.Helper()

	WaitForTimer(t, mock)
	d, w := mock.AdvanceNext()
	w.MustWait(ctx)
	return d
}
