package session

import (
	"errors"
	"fmt"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"
	"bot-panel/internal/protocol"
	"bot-panel/internal/store"
)

var ErrInvalidMove = errors.New("session: invalid move")

const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// SendChat says text as the bot. Without a live session it does nothing.
func (m *Manager) SendChat(id, text string) {
	m.forward(id, text, store.MessageChat, false, "Sent message: ")
}

// SendCommand runs text as a server command. Without a live session it
// does nothing.
func (m *Manager) SendCommand(id, text string) {
	m.forward(id, text, store.MessageConsole, true, "Executed command: ")
}

func (m *Manager) forward(id, text string, t store.MessageType, isCommand bool, logPrefix string) {
	s, ok := m.Get(id)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive {
		return
	}

	if err := s.client.Chat(text); err != nil {
		m.commandFailed(s, err)
		return
	}

	m.relayChat(s, s.username, text, t, isCommand)
	m.record(s, store.LevelInfo, logPrefix+text)
}

// Move presses or releases a movement control. Jump is a momentary
// press released after the jump pulse; stopping a jump does nothing.
// Without a live session it does nothing.
func (m *Manager) Move(id, direction, action string) error {
	control, on, err := parseMove(direction, action)
	if err != nil {
		return err
	}

	s, ok := m.Get(id)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive {
		return nil
	}

	if control == bot.ControlJump {
		if !on {
			return nil
		}
		if err := s.client.SetControlState(bot.ControlJump, true); err != nil {
			m.commandFailed(s, err)
			return nil
		}
		time.AfterFunc(m.opts.JumpPulse, func() { m.releaseJump(s) })
		return nil
	}

	if err := s.client.SetControlState(control, on); err != nil {
		m.commandFailed(s, err)
	}
	return nil
}

func (m *Manager) releaseJump(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive {
		return
	}
	if err := s.client.SetControlState(bot.ControlJump, false); err != nil {
		m.commandFailed(s, err)
	}
}

// commandFailed is called with s.mu held.
func (m *Manager) commandFailed(s *Session, err error) {
	logger.Warn("bot command failed", map[string]any{
		"connection_id": s.ID,
		"error":         err,
	})
	m.record(s, store.LevelError, "Command failed: "+err.Error())
	s.send(protocol.NewBotError(err.Error()))
}

func parseMove(direction, action string) (bot.Control, bool, error) {
	var on bool
	switch action {
	case ActionStart:
		on = true
	case ActionStop:
		on = false
	default:
		return "", false, fmt.Errorf("%w: unknown action %q", ErrInvalidMove, action)
	}

	switch c := bot.Control(direction); c {
	case bot.ControlForward, bot.ControlBack, bot.ControlLeft, bot.ControlRight, bot.ControlJump:
		return c, on, nil
	}
	return "", false, fmt.Errorf("%w: unknown direction %q", ErrInvalidMove, direction)
}
