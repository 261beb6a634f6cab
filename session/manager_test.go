package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CloseCancelsSoleSubscriber(t *testing.T) {
	var idle []string
	m := New(WithOnIdle(func(executionID string) {
		idle = append(idle, executionID)
	}))

	first := m.Open()
	second := m.Open()
	assert.Equal(t, 2, m.Size())

	m.Subscribe(first, "100")
	m.Subscribe(first, "200")
	m.Subscribe(second, "200")

	m.Close(first)
	assert.Equal(t, 1, m.Size())
	// 200 is still watched by the second session, only 100 goes idle
	require.Equal(t, 1, len(idle))
	assert.Equal(t, "100", idle[0])

	m.Close(second)
	require.Equal(t, 2, len(idle))
	assert.Equal(t, "200", idle[1])
}

func TestManager_Unsubscribe(t *testing.T) {
	var idle []string
	m := New(WithOnIdle(func(executionID string) {
		idle = append(idle, executionID)
	}))

	session := m.Open()
	m.Subscribe(session, "300")
	m.Unsubscribe(session, "300")
	require.Equal(t, 1, len(idle))
	assert.Equal(t, "300", idle[0])
	assert.Equal(t, 0, len(session.Subscriptions()))
}

func TestManager_Lookup(t *testing.T) {
	m := New()
	session := m.Open()
	found, ok := m.Lookup(session.ID)
	require.True(t, ok)
	assert.Equal(t, session.ID, found.ID)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}
