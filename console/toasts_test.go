package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/poll"
)

func toastMessages(toasts []Toast) []string {
	msgs := make([]string, 0, len(toasts))
	for _, t := range toasts {
		msgs = append(msgs, t.Message)
	}
	return msgs
}

func TestToastsExpireIndependently(t *testing.T) {
	toasts := NewToasts(150 * time.Millisecond)
	defer toasts.Close()

	toasts.Success("first")
	time.Sleep(75 * time.Millisecond)
	toasts.Error("second")

	assert.Equal(t, []string{"first", "second"}, toastMessages(toasts.List()))

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		msgs := toastMessages(toasts.List())
		if len(msgs) == 1 && msgs[0] == "second" {
			return poll.Success()
		}
		return poll.Continue("toasts are %v", msgs)
	}, poll.WithTimeout(time.Second), poll.WithDelay(5*time.Millisecond))

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if msgs := toastMessages(toasts.List()); len(msgs) > 0 {
			return poll.Continue("toasts are %v", msgs)
		}
		return poll.Success()
	}, poll.WithTimeout(time.Second), poll.WithDelay(5*time.Millisecond))
}

func TestToastDismissKeepsOtherTimers(t *testing.T) {
	toasts := NewToasts(100 * time.Millisecond)
	defer toasts.Close()

	a := toasts.Success("a")
	b := toasts.Success("b")
	c := toasts.Error("c")
	require.NotEqual(t, a.ID, b.ID)

	assert.True(t, toasts.Dismiss(b.ID))
	assert.False(t, toasts.Dismiss(b.ID))
	assert.Equal(t, []string{"a", "c"}, toastMessages(toasts.List()))
	assert.Equal(t, ToastError, toasts.List()[1].Kind)

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if msgs := toastMessages(toasts.List()); len(msgs) > 0 {
			return poll.Continue("toasts are %v", msgs)
		}
		return poll.Success()
	}, poll.WithTimeout(time.Second), poll.WithDelay(5*time.Millisecond))
	assert.False(t, toasts.Dismiss(c.ID))
}

func TestToastsClose(t *testing.T) {
	toasts := NewToasts(time.Hour)
	toasts.Success("kept until close")
	toasts.Close()

	assert.Empty(t, toasts.List())
	toasts.Success("after close")
	assert.Empty(t, toasts.List())
}
