package protocol

import (
	"strconv"

	"bot-panel/internal/bot"
	"bot-panel/internal/store"
)

type BotConnected struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
}

type BotDisconnected struct {
	ConnectionID string `json:"connectionId"`
}

type PingUpdate struct {
	Ping int `json:"ping"`
}

// PositionUpdate carries coordinates as fixed two-decimal strings.
type PositionUpdate struct {
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

func NewBotConnected(connectionID, username string) Envelope {
	return Must(TypeBotConnected, BotConnected{ConnectionID: connectionID, Username: username})
}

func NewBotDisconnected(connectionID string) Envelope {
	return Must(TypeBotDisconnected, BotDisconnected{ConnectionID: connectionID})
}

func NewChatMessage(m store.ChatMessage) Envelope {
	return Must(TypeChatMessage, m)
}

func NewPingUpdate(ping int) Envelope {
	return Must(TypePingUpdate, PingUpdate{Ping: ping})
}

func NewPositionUpdate(p bot.Position) Envelope {
	return Must(TypePositionUpdate, PositionUpdate{
		X: fixed2(p.X),
		Y: fixed2(p.Y),
		Z: fixed2(p.Z),
	})
}

func NewConnectionError(msg string) Envelope {
	return Must(TypeConnectionError, ErrorMessage{Message: msg})
}

func NewBotError(msg string) Envelope {
	return Must(TypeBotError, ErrorMessage{Message: msg})
}

func NewError(msg string) Envelope {
	return Must(TypeError, ErrorMessage{Message: msg})
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
