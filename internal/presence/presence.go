package presence

import (
	"context"
	"time"
)

// Snapshot is the latest telemetry of a live bot.
type Snapshot struct {
	ConnectionID string    `msgpack:"connection_id" json:"connectionId"`
	Username     string    `msgpack:"username" json:"username"`
	Ping         int       `msgpack:"ping" json:"ping"`
	X            float64   `msgpack:"x" json:"x"`
	Y            float64   `msgpack:"y" json:"y"`
	Z            float64   `msgpack:"z" json:"z"`
	HasPosition  bool      `msgpack:"has_position" json:"hasPosition"`
	UpdatedAt    time.Time `msgpack:"updated_at" json:"updatedAt"`
}

// Store keeps snapshots for a bounded time so a crashed process does not
// leave bots looking live forever.
type Store interface {
	Put(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, connectionID string) (*Snapshot, error)
	Delete(ctx context.Context, connectionID string) error
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) Put(context.Context, Snapshot) error            { return nil }
func (Nop) Get(context.Context, string) (*Snapshot, error) { return nil, nil }
func (Nop) Delete(context.Context, string) error           { return nil }
