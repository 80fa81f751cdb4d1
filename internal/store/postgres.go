package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bot-panel/internal/db"

	"github.com/google/uuid"
)

type Postgres struct {
	db *db.DB
}

var _ Gateway = (*Postgres)(nil)

func NewPostgres(db *db.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) CreateConnection(ctx context.Context, c Connection) (*Connection, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO connections (id, username, server_ip, version, is_connected, last_ping, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Username, c.ServerIP, c.Version, c.IsConnected, nullInt(c.LastPing), c.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("store: create connection: %w", err)
	}

	return &c, nil
}

func (p *Postgres) GetConnection(ctx context.Context, id string) (*Connection, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, username, server_ip, version, is_connected, last_ping, created_at
		FROM connections
		WHERE id = $1
	`, id)

	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get connection: %w", err)
	}

	return c, nil
}

func (p *Postgres) UpdateConnection(ctx context.Context, id string, u ConnectionUpdate) error {
	// COALESCE keeps columns whose update field is nil.
	res, err := p.db.ExecContext(ctx, `
		UPDATE connections
		SET is_connected = COALESCE($2, is_connected),
		    last_ping = COALESCE($3, last_ping)
		WHERE id = $1
	`, id, nullBool(u.IsConnected), nullInt(u.LastPing))

	if err != nil {
		return fmt.Errorf("store: update connection: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) DeleteConnection(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete connection: %w", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) ListConnections(ctx context.Context) ([]Connection, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, username, server_ip, version, is_connected, last_ping, created_at
		FROM connections
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list connections: %w", err)
	}
	defer rows.Close()

	out := []Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list connections: %w", err)
		}
		out = append(out, *c)
	}

	return out, rows.Err()
}

func (p *Postgres) CreateChatMessage(ctx context.Context, m ChatMessage) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, connection_id, username, message, message_type, is_command, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.ConnectionID, m.Username, m.Message, string(m.MessageType), m.IsCommand, m.Timestamp)

	if err != nil {
		return fmt.Errorf("store: create chat message: %w", err)
	}

	return nil
}

func (p *Postgres) GetChatMessages(ctx context.Context, connectionID string) ([]ChatMessage, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, connection_id, username, message, message_type, is_command, timestamp
		FROM chat_messages
		WHERE connection_id = $1
		ORDER BY timestamp ASC
	`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("store: get chat messages: %w", err)
	}
	defer rows.Close()

	out := []ChatMessage{}
	for rows.Next() {
		var (
			m     ChatMessage
			mtype string
		)
		if err := rows.Scan(&m.ID, &m.ConnectionID, &m.Username, &m.Message, &mtype, &m.IsCommand, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("store: get chat messages: %w", err)
		}
		m.MessageType = MessageType(mtype)
		out = append(out, m)
	}

	return out, rows.Err()
}

func (p *Postgres) CreateLog(ctx context.Context, l LogEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO logs (id, connection_id, level, message, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, l.ID, l.ConnectionID, string(l.Level), l.Message, l.Timestamp)

	if err != nil {
		return fmt.Errorf("store: create log: %w", err)
	}

	return nil
}

func (p *Postgres) GetLogs(ctx context.Context, connectionID string) ([]LogEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, connection_id, level, message, timestamp
		FROM logs
		WHERE connection_id = $1
		ORDER BY timestamp ASC
	`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("store: get logs: %w", err)
	}
	defer rows.Close()

	out := []LogEntry{}
	for rows.Next() {
		var (
			l     LogEntry
			level string
		)
		if err := rows.Scan(&l.ID, &l.ConnectionID, &level, &l.Message, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("store: get logs: %w", err)
		}
		l.Level = LogLevel(level)
		out = append(out, l)
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(s scanner) (*Connection, error) {
	var (
		c    Connection
		ping sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Username, &c.ServerIP, &c.Version, &c.IsConnected, &ping, &c.CreatedAt); err != nil {
		return nil, err
	}
	if ping.Valid {
		v := int(ping.Int64)
		c.LastPing = &v
	}
	return &c, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
