package db

import (
	"context"
	"database/sql"
)

const panelMigration = `
CREATE TABLE IF NOT EXISTS connections (
    id text PRIMARY KEY,
    username text NOT NULL,
    server_ip text NOT NULL,
    version text NOT NULL DEFAULT '',
    is_connected boolean NOT NULL DEFAULT false,
    last_ping integer,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id text PRIMARY KEY,
    connection_id text NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
    username text NOT NULL DEFAULT '',
    message text NOT NULL,
    message_type text NOT NULL,
    is_command boolean NOT NULL DEFAULT false,
    timestamp timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS chat_messages_connection_ts_idx
ON chat_messages (connection_id, timestamp);

CREATE TABLE IF NOT EXISTS logs (
    id text PRIMARY KEY,
    connection_id text NOT NULL REFERENCES connections(id) ON DELETE CASCADE,
    level text NOT NULL,
    message text NOT NULL,
    timestamp timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS logs_connection_ts_idx
ON logs (connection_id, timestamp);
`

func RunPanelMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, panelMigration)
	return err
}
