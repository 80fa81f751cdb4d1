package gomc

import (
	"bot-panel/internal/bot"

	"github.com/Tnze/go-mc/chat"
)

const (
	keyJoined   = "multiplayer.player.joined"
	keyLeft     = "multiplayer.player.left"
	keyChatText = "chat.type.text"
)

// classifySystem turns a system chat line into events. Every line is an
// EventMessage; join and leave notices also produce their own event.
func classifySystem(m chat.Message) []bot.Event {
	events := []bot.Event{{Kind: bot.EventMessage, Text: m.ClearString()}}

	switch m.Translate {
	case keyJoined:
		if name := arg(m, 0); name != "" {
			events = append(events, bot.Event{Kind: bot.EventPlayerJoined, Username: name})
		}
	case keyLeft:
		if name := arg(m, 0); name != "" {
			events = append(events, bot.Event{Kind: bot.EventPlayerLeft, Username: name})
		}
	}
	return events
}

// classifyPlayer turns a decorated player chat line into a chat event plus
// the generic message event.
func classifyPlayer(m chat.Message) []bot.Event {
	events := []bot.Event{{Kind: bot.EventMessage, Text: m.ClearString()}}
	if m.Translate == keyChatText && len(m.With) >= 2 {
		events = append(events, bot.Event{
			Kind:     bot.EventChat,
			Username: arg(m, 0),
			Text:     arg(m, 1),
		})
	}
	return events
}

func arg(m chat.Message, i int) string {
	if i >= len(m.With) {
		return ""
	}
	return m.With[i].ClearString()
}
