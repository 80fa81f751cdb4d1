package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("store: not found")

// Gateway is the durable record of connections, chat and logs.
// Chat messages and log entries arrive fully formed (id and timestamp
// set by the caller) and are never mutated.
type Gateway interface {
	CreateConnection(ctx context.Context, c Connection) (*Connection, error)
	GetConnection(ctx context.Context, id string) (*Connection, error)
	UpdateConnection(ctx context.Context, id string, u ConnectionUpdate) error
	DeleteConnection(ctx context.Context, id string) error
	ListConnections(ctx context.Context) ([]Connection, error)

	CreateChatMessage(ctx context.Context, m ChatMessage) error
	GetChatMessages(ctx context.Context, connectionID string) ([]ChatMessage, error)

	CreateLog(ctx context.Context, l LogEntry) error
	GetLogs(ctx context.Context, connectionID string) ([]LogEntry, error)
}
