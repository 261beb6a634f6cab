package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessai/mcp-bridge/tess"
)

// scriptedFetch replays a fixed status sequence, holding the last status once
// the script runs out.
func scriptedFetch(polls *int32, script ...tess.Status) StatusFunc {
	return func(ctx context.Context, id string) (*tess.Execution, error) {
		index := int(atomic.AddInt32(polls, 1)) - 1
		if index >= len(script) {
			index = len(script) - 1
		}
		return &tess.Execution{ID: tess.ID(id), Status: script[index], Output: "done"}, nil
	}
}

func TestMonitor_Watch_CompleteSequence(t *testing.T) {
	var polls int32
	m := New(scriptedFetch(&polls, tess.StatusPending, tess.StatusRunning, tess.StatusRunning, tess.StatusCompleted),
		WithInterval(time.Millisecond))

	var events []*Event
	m.Watch(context.Background(), &tess.Execution{ID: "41", Status: tess.StatusPending}, func(event *Event) {
		events = append(events, event)
	})

	assert.Equal(t, int32(4), atomic.LoadInt32(&polls))
	require.Equal(t, 2, len(events))
	assert.Equal(t, EventUpdate, events[0].Type)
	assert.Equal(t, tess.StatusRunning, events[0].Execution.Status)
	assert.Equal(t, EventComplete, events[1].Type)
	assert.Equal(t, tess.StatusCompleted, events[1].Execution.Status)
	assert.Nil(t, events[1].Err)
	assert.Equal(t, 0, m.InFlight())

	// no polls after the terminal event
	before := atomic.LoadInt32(&polls)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt32(&polls))
}

func TestMonitor_Watch_Timeout(t *testing.T) {
	var polls int32
	m := New(scriptedFetch(&polls, tess.StatusRunning),
		WithInterval(time.Millisecond), WithMaxAttempts(5))

	var terminal *Event
	m.Watch(context.Background(), &tess.Execution{ID: "7", Status: tess.StatusRunning}, func(event *Event) {
		if event.Terminal() {
			terminal = event
		}
	})

	assert.Equal(t, int32(5), atomic.LoadInt32(&polls))
	require.NotNil(t, terminal)
	assert.Equal(t, EventError, terminal.Type)
	assert.Equal(t, tess.StatusTimeout, terminal.Execution.Status)
	assert.True(t, errors.Is(terminal.Err, ErrTimeout))
}

func TestMonitor_Watch_Failed(t *testing.T) {
	var polls int32
	m := New(scriptedFetch(&polls, tess.StatusFailed), WithInterval(time.Millisecond))

	var terminal *Event
	m.Watch(context.Background(), &tess.Execution{ID: "9", Status: tess.StatusPending}, func(event *Event) {
		terminal = event
	})
	require.NotNil(t, terminal)
	assert.Equal(t, EventError, terminal.Type)
	assert.Equal(t, tess.StatusFailed, terminal.Execution.Status)
	assert.Nil(t, terminal.Err)
}

func TestMonitor_Watch_TransientErrors(t *testing.T) {
	var polls int32
	fetch := func(ctx context.Context, id string) (*tess.Execution, error) {
		n := atomic.AddInt32(&polls, 1)
		if n < 3 {
			return nil, &tess.TransientError{Err: errors.New("connection reset")}
		}
		return &tess.Execution{ID: tess.ID(id), Status: tess.StatusCompleted}, nil
	}
	m := New(fetch, WithInterval(time.Millisecond))

	final, err := m.Await(context.Background(), &tess.Execution{ID: "3", Status: tess.StatusRunning})
	require.Nil(t, err)
	assert.Equal(t, tess.StatusCompleted, final.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestMonitor_Watch_AlreadyTerminal(t *testing.T) {
	var polls int32
	m := New(scriptedFetch(&polls, tess.StatusCompleted), WithInterval(time.Millisecond))

	final, err := m.Await(context.Background(), &tess.Execution{ID: "5", Status: tess.StatusCompleted, Output: "hi"})
	require.Nil(t, err)
	assert.Equal(t, tess.StatusCompleted, final.Status)
	assert.Equal(t, "hi", final.Output)
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls), "terminal input needs no polls")
}

func TestMonitor_Cancel(t *testing.T) {
	var polls int32
	m := New(scriptedFetch(&polls, tess.StatusRunning), WithInterval(time.Millisecond), WithMaxAttempts(1000))

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Watch(context.Background(), &tess.Execution{ID: "12", Status: tess.StatusRunning}, func(event *Event) {
			t.Errorf("unexpected event %v after cancel", event.Type)
		})
	}()

	for i := 0; i < 100 && m.InFlight() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, m.InFlight())
	m.Cancel("12")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Equal(t, 0, m.InFlight())
}

func TestMonitor_Await_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := func(ctx context.Context, id string) (*tess.Execution, error) {
		cancel()
		return &tess.Execution{ID: tess.ID(id), Status: tess.StatusRunning}, nil
	}
	m := New(fetch, WithInterval(time.Millisecond))

	_, err := m.Await(ctx, &tess.Execution{ID: "8", Status: tess.StatusRunning})
	assert.True(t, errors.Is(err, context.Canceled))
}
