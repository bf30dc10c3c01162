package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
	"gotest.tools/v3/poll"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Inc()
	return c.err
}

func waitForCalls(r *countingRefresher, want int32) poll.Check {
	return func(t poll.LogT) poll.Result {
		if got := r.calls.Load(); got < want {
			return poll.Continue("%d refreshes, want %d", got, want)
		}
		return poll.Success()
	}
}

func TestPollerRefreshesOnStart(t *testing.T) {
	r := &countingRefresher{}
	p := NewPoller(r, time.Hour)
	p.Start(context.Background())
	defer p.Stop()

	poll.WaitOn(t, waitForCalls(r, 1), poll.WithTimeout(time.Second))
	assert.True(t, p.Running())
}

func TestPollerTicks(t *testing.T) {
	r := &countingRefresher{}
	p := NewPoller(r, 5*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()

	poll.WaitOn(t, waitForCalls(r, 4), poll.WithTimeout(time.Second))
}

func TestPollerTrigger(t *testing.T) {
	r := &countingRefresher{}
	p := NewPoller(r, time.Hour)
	p.Start(context.Background())
	defer p.Stop()
	poll.WaitOn(t, waitForCalls(r, 1), poll.WithTimeout(time.Second))

	p.Trigger()
	poll.WaitOn(t, waitForCalls(r, 2), poll.WithTimeout(time.Second))
}

func TestPollerStartIsIdempotent(t *testing.T) {
	r := &countingRefresher{}
	p := NewPoller(r, time.Hour)
	p.Start(context.Background())
	p.Start(context.Background())
	poll.WaitOn(t, waitForCalls(r, 1), poll.WithTimeout(time.Second))
	p.Stop()

	assert.Equal(t, int32(1), r.calls.Load(), "a second Start must not spawn another loop")
	assert.False(t, p.Running())
}

func TestPollerKeepsGoingAfterFailures(t *testing.T) {
	r := &countingRefresher{err: errors.New("backend down")}
	p := NewPoller(r, 5*time.Millisecond)
	p.Start(context.Background())
	defer p.Stop()

	poll.WaitOn(t, waitForCalls(r, 3), poll.WithTimeout(time.Second))
}

func TestPollerStop(t *testing.T) {
	r := &countingRefresher{}
	p := NewPoller(r, 5*time.Millisecond)
	p.Start(context.Background())
	poll.WaitOn(t, waitForCalls(r, 1), poll.WithTimeout(time.Second))
	p.Stop()

	stopped := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, r.calls.Load(), "no refresh after Stop returned")

	// stopping twice is fine, and the poller can be started again
	p.Stop()
	p.Start(context.Background())
	defer p.Stop()
	poll.WaitOn(t, waitForCalls(r, stopped+1), poll.WithTimeout(time.Second))
}
