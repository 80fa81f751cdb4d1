// Package session owns live bot sessions: the registry that maps a
// connection id to its session, the lifecycle state machine driven by
// the bot's event stream, and the commands a control socket can issue.
package session

import (
	"sync"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"
	"bot-panel/internal/protocol"
)

// Socket is the control socket that requested a session. A session only
// sends to it; closing it is the relay's business. Send is called with
// session locks held and must not block.
type Socket interface {
	Send(env protocol.Envelope) error
	Open() bool
}

type State int

const (
	StateConnecting State = iota + 1
	StateLive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

type cause int

const (
	causeRequested cause = iota + 1
	causeSocketClosed
	causeReplaced
	causeEnded
	causeShutdown
)

// Session pairs one protocol client with the socket that asked for it.
// mu serializes commands, telemetry ticks and teardown.
type Session struct {
	ID      string
	Server  string
	Version string

	socket  Socket
	client  bot.Client
	journal *journal

	mu       sync.Mutex
	username string
	state    State
	ticker   *time.Ticker
	stop     chan struct{}
}

func newSession(id, username, server, version string, sock Socket, j *journal) *Session {
	return &Session{
		ID:       id,
		Server:   server,
		Version:  version,
		socket:   sock,
		journal:  j,
		username: username,
		state:    StateConnecting,
		stop:     make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) tickerC() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

// send delivers env to the owning socket. A closed or slow socket only
// costs the frame.
func (s *Session) send(env protocol.Envelope) {
	if err := s.socket.Send(env); err != nil {
		logger.Debug("relay send failed", map[string]any{
			"connection_id": s.ID,
			"type":          env.Type,
			"error":         err,
		})
	}
}
