package store

import "time"

type MessageType string

const (
	MessageChat    MessageType = "chat"
	MessageSystem  MessageType = "system"
	MessageJoin    MessageType = "join"
	MessageLeave   MessageType = "leave"
	MessageDeath   MessageType = "death"
	MessageConsole MessageType = "console"
)

type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Connection is a requested bot session. Only IsConnected and LastPing
// change after creation.
type Connection struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	ServerIP    string    `json:"serverIp"`
	Version     string    `json:"version"`
	IsConnected bool      `json:"isConnected"`
	LastPing    *int      `json:"lastPing"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ConnectionUpdate carries the live fields; nil fields are left untouched.
type ConnectionUpdate struct {
	IsConnected *bool
	LastPing    *int
}

type ChatMessage struct {
	ID           string      `json:"id"`
	ConnectionID string      `json:"connectionId"`
	Username     string      `json:"username"`
	Message      string      `json:"message"`
	MessageType  MessageType `json:"messageType"`
	IsCommand    bool        `json:"isCommand"`
	Timestamp    time.Time   `json:"timestamp"`
}

type LogEntry struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Level        LogLevel  `json:"level"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}
