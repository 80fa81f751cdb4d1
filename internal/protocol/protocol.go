// Package protocol defines the control-socket wire format: every frame
// is a JSON object {"type": ..., "data": {...}}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

// Inbound.
const (
	TypeConnectBot    MessageType = "connect_bot"
	TypeDisconnectBot MessageType = "disconnect_bot"
	TypeSendChat      MessageType = "send_chat"
	TypeSendCommand   MessageType = "send_command"
	TypeMoveBot       MessageType = "move_bot"
)

// Outbound.
const (
	TypeBotConnected    MessageType = "bot_connected"
	TypeBotDisconnected MessageType = "bot_disconnected"
	TypeChatMessage     MessageType = "chat_message"
	TypePingUpdate      MessageType = "ping_update"
	TypePositionUpdate  MessageType = "position_update"
	TypeConnectionError MessageType = "connection_error"
	TypeBotError        MessageType = "bot_error"
	TypeError           MessageType = "error"
)

const InvalidFormatMessage = "Invalid message format"

var (
	ErrInvalidFormat  = errors.New("protocol: invalid message format")
	ErrMissingField   = errors.New("protocol: missing required field")
	ErrUnknownMessage = errors.New("protocol: unknown message type")
)

// Envelope is a single frame in either direction.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode parses a raw frame. The envelope must be a JSON object with a
// non-empty type; data is left raw for the per-type payload decoders.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrInvalidFormat)
	}
	return env, nil
}

// New builds an outbound envelope from a payload value.
func New(t MessageType, data any) (Envelope, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: encode %s: %w", t, err)
	}
	return Envelope{Type: t, Data: b}, nil
}

// Must is New for payloads that cannot fail to encode.
func Must(t MessageType, data any) Envelope {
	env, err := New(t, data)
	if err != nil {
		panic(err)
	}
	return env
}
