package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunPendingOrder(t *testing.T) {
	l := New()
	var got []int
	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })
	l.AfterFunc(0, func() { got = append(got, 4) })

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 4, l.RunPending())
	assert.Equal(t, []int{1, 2, 4, 3}, got)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, uint64(4), l.Ran())
}

func TestLoop_RunWithTimer(t *testing.T) {
	l := New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer callback did not run")
	}
	assert.Equal(t, 0, l.Timers())

	l.Close()
	require.ErrorIs(t, <-done, ErrClosed)
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}

func TestLoop_PostAfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Post(func() { t.Fatal("must not run") })
	assert.Equal(t, 0, l.RunPending())
	assert.True(t, l.Closed())
}
