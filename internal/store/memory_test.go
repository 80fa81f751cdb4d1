package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConnectionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateConnection(ctx, Connection{Username: "Bob", ServerIP: "host:25566", Version: "1.20.1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	on := true
	ping := 42
	require.NoError(t, m.UpdateConnection(ctx, created.ID, ConnectionUpdate{IsConnected: &on}))
	require.NoError(t, m.UpdateConnection(ctx, created.ID, ConnectionUpdate{LastPing: &ping}))

	got, err := m.GetConnection(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsConnected)
	require.NotNil(t, got.LastPing)
	assert.Equal(t, 42, *got.LastPing)

	require.NoError(t, m.DeleteConnection(ctx, created.ID))
	_, err = m.GetConnection(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateMissing(t *testing.T) {
	on := true
	err := NewMemory().UpdateConnection(context.Background(), "nope", ConnectionUpdate{IsConnected: &on})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryMessagesSortedByTimestamp(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()

	// Written out of order; display order is by timestamp.
	require.NoError(t, m.CreateChatMessage(ctx, ChatMessage{ID: "2", ConnectionID: "c1", Timestamp: now.Add(time.Second)}))
	require.NoError(t, m.CreateChatMessage(ctx, ChatMessage{ID: "1", ConnectionID: "c1", Timestamp: now}))
	require.NoError(t, m.CreateChatMessage(ctx, ChatMessage{ID: "x", ConnectionID: "other", Timestamp: now}))

	msgs, err := m.GetChatMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "2", msgs[1].ID)

	require.NoError(t, m.CreateLog(ctx, LogEntry{ID: "b", ConnectionID: "c1", Timestamp: now.Add(time.Minute)}))
	require.NoError(t, m.CreateLog(ctx, LogEntry{ID: "a", ConnectionID: "c1", Timestamp: now}))
	logs, err := m.GetLogs(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "a", logs[0].ID)
}
