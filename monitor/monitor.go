// Package monitor converts the upstream's poll-only execution status API into
// a bounded watch loop: a fixed tick interval, a fixed attempt budget, and
// exactly one terminal event per execution.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessai/mcp-bridge/internal/collection"
	"github.com/tessai/mcp-bridge/tess"
)

const (
	defaultInterval    = time.Second
	defaultMaxAttempts = 60
)

// ErrTimeout reports an exhausted polling budget with no terminal upstream status.
var ErrTimeout = errors.New("monitor: polling budget exhausted")

// StatusFunc fetches the current execution record; *tess.Client.GetExecution
// satisfies it.
type StatusFunc func(ctx context.Context, id string) (*tess.Execution, error)

// EventType discriminates watch callbacks.
type EventType string

const (
	// EventUpdate is emitted on every non-terminal status change.
	EventUpdate EventType = "execution_update"
	// EventComplete is emitted once when the execution completed.
	EventComplete EventType = "execution_complete"
	// EventError is emitted once when the execution failed, errored or timed out.
	EventError EventType = "execution_error"
)

// Event carries one observed transition. Err is set only for the synthetic
// timeout; upstream failures are conveyed by the execution status itself.
type Event struct {
	Type      EventType
	Execution *tess.Execution
	Err       error
}

// Terminal reports whether the event ends the watch.
func (e *Event) Terminal() bool {
	return e.Type != EventUpdate
}

// Option customizes a monitor.
type Option func(m *Monitor)

// WithInterval sets the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithMaxAttempts sets the polling budget.
func WithMaxAttempts(maxAttempts int) Option {
	return func(m *Monitor) {
		if maxAttempts > 0 {
			m.maxAttempts = maxAttempts
		}
	}
}

// WithLogger sets the process logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor owns the in-flight execution table; each Watch call runs one loop
// and removes its record when the loop ends.
type Monitor struct {
	fetch       StatusFunc
	interval    time.Duration
	maxAttempts int
	inFlight    *collection.SyncMap[string, context.CancelFunc]
	logger      zerolog.Logger
}

// New creates a monitor polling via fetch.
func New(fetch StatusFunc, options ...Option) *Monitor {
	ret := &Monitor{
		fetch:       fetch,
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
		inFlight:    collection.NewSyncMap[string, context.CancelFunc](),
		logger:      zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Watch polls the execution until a terminal status, the attempt budget or ctx
// cancellation, invoking onEvent for each status change and exactly once for
// the terminal outcome. It blocks; run it on a goroutine for push delivery.
// Cancellation emits no event: a watcher that went away has no listener.
func (m *Monitor) Watch(ctx context.Context, execution *tess.Execution, onEvent func(event *Event)) {
	id := execution.ID.String()
	ctx, cancel := context.WithCancel(ctx)
	m.inFlight.Put(id, cancel)
	defer func() {
		m.inFlight.Delete(id)
		cancel()
	}()

	if execution.Status.IsTerminal() {
		onEvent(terminalEvent(execution))
		return
	}

	lastStatus := execution.Status
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		current, err := m.fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient by policy: keep polling, the attempt budget bounds us.
			m.logger.Warn().Str("execution", id).Int("attempt", attempt).Err(err).Msg("status poll failed")
			continue
		}
		if current.ID == "" {
			current.ID = execution.ID
		}
		if current.Status.IsTerminal() {
			onEvent(terminalEvent(current))
			return
		}
		if current.Status != lastStatus {
			lastStatus = current.Status
			onEvent(&Event{Type: EventUpdate, Execution: current})
		}
	}

	timedOut := &tess.Execution{ID: execution.ID, Status: tess.StatusTimeout, CreatedAt: execution.CreatedAt}
	m.logger.Warn().Str("execution", id).Int("attempts", m.maxAttempts).Msg("execution timed out")
	onEvent(&Event{Type: EventError, Execution: timedOut, Err: fmt.Errorf("%w after %v attempts", ErrTimeout, m.maxAttempts)})
}

// Await blocks until the execution reaches a terminal state and returns the
// final record; the error is non-nil for the synthetic timeout or when ctx was
// cancelled first.
func (m *Monitor) Await(ctx context.Context, execution *tess.Execution) (*tess.Execution, error) {
	var terminal *Event
	m.Watch(ctx, execution, func(event *Event) {
		if event.Terminal() {
			terminal = event
		}
	})
	if terminal == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("monitor: watch ended without terminal state for %v", execution.ID)
	}
	return terminal.Execution, terminal.Err
}

// Cancel stops the loop watching the given execution id, if any.
func (m *Monitor) Cancel(id string) {
	if cancel, ok := m.inFlight.Get(id); ok {
		cancel()
	}
}

// InFlight returns the number of currently watched executions.
func (m *Monitor) InFlight() int {
	return m.inFlight.Size()
}

func terminalEvent(execution *tess.Execution) *Event {
	if execution.Status == tess.StatusCompleted {
		return &Event{Type: EventComplete, Execution: execution}
	}
	return &Event{Type: EventError, Execution: execution}
}
