// Package session tracks live protocol connections and which executions each
// one subscribed to, so that a closing connection can tear down the watch
// loops nobody else is listening to.
package session

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tessai/mcp-bridge/internal/collection"
)

// Session is one live connection with its execution subscriptions.
type Session struct {
	ID            string
	subscriptions *collection.SyncMap[string, bool]
}

// Subscriptions returns the subscribed execution ids.
func (s *Session) Subscriptions() []string {
	var ret []string
	s.subscriptions.Range(func(key string, _ bool) bool {
		ret = append(ret, key)
		return true
	})
	return ret
}

// Option customizes a manager.
type Option func(m *Manager)

// WithLogger sets the process logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithOnIdle sets the callback invoked with each execution id whose last
// subscriber went away.
func WithOnIdle(onIdle func(executionID string)) Option {
	return func(m *Manager) {
		m.onIdle = onIdle
	}
}

// Manager owns the session table.
type Manager struct {
	sessions *collection.SyncMap[string, *Session]
	onIdle   func(executionID string)
	logger   zerolog.Logger
}

// New creates a manager.
func New(options ...Option) *Manager {
	ret := &Manager{
		sessions: collection.NewSyncMap[string, *Session](),
		logger:   zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Open registers a new session and returns it.
func (m *Manager) Open() *Session {
	ret := &Session{
		ID:            uuid.New().String(),
		subscriptions: collection.NewSyncMap[string, bool](),
	}
	m.sessions.Put(ret.ID, ret)
	m.logger.Debug().Str("session", ret.ID).Msg("session opened")
	return ret
}

// Lookup returns the session registered under id.
func (m *Manager) Lookup(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Subscribe records that the session is watching the execution.
func (m *Manager) Subscribe(session *Session, executionID string) {
	session.subscriptions.Put(executionID, true)
}

// Unsubscribe drops the session's interest in the execution, firing onIdle
// when it was the last subscriber.
func (m *Manager) Unsubscribe(session *Session, executionID string) {
	session.subscriptions.Delete(executionID)
	if m.subscriberCount(executionID) == 0 {
		m.notifyIdle(executionID)
	}
}

// Close removes the session; executions it alone was watching are reported
// idle so their watch loops can be cancelled.
func (m *Manager) Close(session *Session) {
	if session == nil {
		return
	}
	m.sessions.Delete(session.ID)
	for _, executionID := range session.Subscriptions() {
		if m.subscriberCount(executionID) == 0 {
			m.notifyIdle(executionID)
		}
	}
	m.logger.Debug().Str("session", session.ID).Msg("session closed")
}

// Size returns the number of live sessions.
func (m *Manager) Size() int {
	return m.sessions.Size()
}

func (m *Manager) subscriberCount(executionID string) int {
	count := 0
	m.sessions.Range(func(_ string, candidate *Session) bool {
		if _, ok := candidate.subscriptions.Get(executionID); ok {
			count++
		}
		return true
	})
	return count
}

func (m *Manager) notifyIdle(executionID string) {
	if m.onIdle == nil {
		return
	}
	m.logger.Debug().Str("execution", executionID).Msg("last subscriber left")
	m.onIdle(executionID)
}
