package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a process-local Gateway used when no database is configured
// and in tests.
type Memory struct {
	mu          sync.Mutex
	connections map[string]Connection
	messages    map[string][]ChatMessage
	logs        map[string][]LogEntry
}

var _ Gateway = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		connections: make(map[string]Connection),
		messages:    make(map[string][]ChatMessage),
		logs:        make(map[string][]LogEntry),
	}
}

func (m *Memory) CreateConnection(_ context.Context, c Connection) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.connections[c.ID] = c
	return &c, nil
}

func (m *Memory) GetConnection(_ context.Context, id string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.connections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) UpdateConnection(_ context.Context, id string, u ConnectionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.connections[id]
	if !ok {
		return ErrNotFound
	}
	if u.IsConnected != nil {
		c.IsConnected = *u.IsConnected
	}
	if u.LastPing != nil {
		ping := *u.LastPing
		c.LastPing = &ping
	}
	m.connections[id] = c
	return nil
}

func (m *Memory) DeleteConnection(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[id]; !ok {
		return ErrNotFound
	}
	delete(m.connections, id)
	delete(m.messages, id)
	delete(m.logs, id)
	return nil
}

func (m *Memory) ListConnections(_ context.Context) ([]Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Connection, 0, len(m.connections))
	for _, c := range m.connections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CreateChatMessage(_ context.Context, msg ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages[msg.ConnectionID] = append(m.messages[msg.ConnectionID], msg)
	return nil
}

func (m *Memory) GetChatMessages(_ context.Context, connectionID string) ([]ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]ChatMessage{}, m.messages[connectionID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) CreateLog(_ context.Context, l LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs[l.ConnectionID] = append(m.logs[l.ConnectionID], l)
	return nil
}

func (m *Memory) GetLogs(_ context.Context, connectionID string) ([]LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]LogEntry{}, m.logs[connectionID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
