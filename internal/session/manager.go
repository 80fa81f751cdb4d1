package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"
	"bot-panel/internal/presence"
	"bot-panel/internal/protocol"
	"bot-panel/internal/store"

	"github.com/google/uuid"
)

type Options struct {
	// TelemetryInterval is the ping/position sampling period.
	TelemetryInterval time.Duration
	// JumpPulse is how long the jump control stays pressed.
	JumpPulse time.Duration
	// WriteTimeout bounds a single persistence call.
	WriteTimeout time.Duration
	// JournalSize is the per-session persistence queue length.
	JournalSize int
}

func DefaultOptions() Options {
	return Options{
		TelemetryInterval: 2 * time.Second,
		JumpPulse:         100 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
		JournalSize:       256,
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.TelemetryInterval <= 0 {
		o.TelemetryInterval = d.TelemetryInterval
	}
	if o.JumpPulse <= 0 {
		o.JumpPulse = d.JumpPulse
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.JournalSize <= 0 {
		o.JournalSize = d.JournalSize
	}
	return o
}

type ConnectRequest struct {
	ConnectionID string
	Username     string
	ServerIP     string
	Version      string
}

// Manager drives every session's lifecycle. Lock order is Manager.mu
// before Session.mu.
type Manager struct {
	dialer   bot.Dialer
	store    store.Gateway
	presence presence.Store
	opts     Options

	mu       sync.Mutex
	registry *Registry
	pending  map[string]*Session
	closed   bool

	wg sync.WaitGroup
}

func NewManager(dialer bot.Dialer, gateway store.Gateway, pres presence.Store, opts Options) *Manager {
	if pres == nil {
		pres = presence.Nop{}
	}
	return &Manager{
		dialer:   dialer,
		store:    gateway,
		presence: pres,
		opts:     opts.normalize(),
		registry: NewRegistry(),
		pending:  make(map[string]*Session),
	}
}

var ErrClosed = errors.New("session: manager closed")

// Connect starts a connection attempt. It returns once the client is
// dialed; login, failure and everything after arrive through the
// session's event loop. A newer attempt for the same id supersedes an
// older pending one.
func (m *Manager) Connect(ctx context.Context, sock Socket, req ConnectRequest) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}

	j := newJournal(req.ConnectionID, m.opts.JournalSize, m.opts.WriteTimeout, &m.wg)
	s := newSession(req.ConnectionID, req.Username, req.ServerIP, req.Version, sock, j)

	m.ensureConnection(s)

	host, port, err := bot.ParseAddress(req.ServerIP)
	if err != nil {
		m.failConnect(s, err.Error())
		return err
	}

	logger.Info("connecting bot", map[string]any{
		"connection_id": req.ConnectionID,
		"username":      req.Username,
		"server":        fmt.Sprintf("%s:%d", host, port),
		"version":       req.Version,
	})

	client, err := m.dialer.Dial(ctx, bot.Options{
		Host:     host,
		Port:     port,
		Username: req.Username,
		Version:  req.Version,
		Auth:     bot.AuthOffline,
	})
	if err != nil {
		m.failConnect(s, err.Error())
		return err
	}
	s.client = client

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		client.Quit("server shutting down")
		s.journal.close()
		return ErrClosed
	}
	if prev, ok := m.pending[s.ID]; ok {
		m.shutdown(prev, causeReplaced, "superseded by a newer connection attempt")
	}
	m.pending[s.ID] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(s)

	return nil
}

// Disconnect tears down the session for id, live or still connecting.
// Calling it again, or for an unknown id, does nothing.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.registry.Get(id); ok {
		m.registry.Remove(id)
		m.shutdown(s, causeRequested, "disconnected by user")
	}
	if s, ok := m.pending[id]; ok {
		delete(m.pending, id)
		m.shutdown(s, causeRequested, "disconnected by user")
	}
}

// DetachSocket tears down every session owned by a closing socket.
func (m *Manager) DetachSocket(sock Socket) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.registry.Owned(sock) {
		m.registry.Remove(s.ID)
		m.shutdown(s, causeSocketClosed, "control socket closed")
	}
	for id, s := range m.pending {
		if s.socket == sock {
			delete(m.pending, id)
			m.shutdown(s, causeSocketClosed, "control socket closed")
		}
	}
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Get(id)
}

// Live reports whether id has a registered session.
func (m *Manager) Live(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// Close tears down all sessions and waits for their event loops and
// pending writes.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	for id, s := range m.registry.sessions {
		m.registry.Remove(id)
		m.shutdown(s, causeShutdown, "server shutting down")
	}
	for id, s := range m.pending {
		delete(m.pending, id)
		m.shutdown(s, causeShutdown, "server shutting down")
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(s *Session) {
	defer m.wg.Done()

	events := s.client.Events()
	var tick <-chan time.Time

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				ev = bot.Event{Kind: bot.EventEnd, Reason: "connection closed"}
			}
			if m.handle(s, ev) {
				return
			}
			if tick == nil {
				tick = s.tickerC()
			}
		case <-tick:
			m.tick(s)
		case <-s.stop:
			return
		}
	}
}

// handle applies one event and reports whether the loop is finished.
func (m *Manager) handle(s *Session, ev bot.Event) bool {
	switch s.State() {
	case StateConnecting:
		return m.handleConnecting(s, ev)
	case StateLive:
		return m.handleLive(s, ev)
	}
	return true
}

func (m *Manager) handleConnecting(s *Session, ev bot.Event) bool {
	switch ev.Kind {
	case bot.EventLogin:
		return !m.promote(s)
	case bot.EventError:
		m.failPending(s, errText(ev.Err))
		return true
	case bot.EventEnd:
		reason := ev.Reason
		if reason == "" {
			reason = "connection closed before login"
		}
		m.failPending(s, reason)
		return true
	}
	return false
}

func (m *Manager) handleLive(s *Session, ev bot.Event) bool {
	if ev.Kind == bot.EventEnd {
		reason := ev.Reason
		if reason == "" {
			reason = "connection ended"
		}
		m.terminate(s, causeEnded, reason)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive {
		return true
	}

	switch ev.Kind {
	case bot.EventChat:
		if ev.Username == s.username {
			return false
		}
		m.relayChat(s, ev.Username, ev.Text, store.MessageChat, false)

	case bot.EventMessage:
		if IsSystemMessage(ev.Text) {
			m.relayChat(s, "System", ev.Text, store.MessageSystem, false)
		}

	case bot.EventPlayerJoined:
		if ev.Username != s.username {
			m.relayChat(s, ev.Username, ev.Username+" joined the game", store.MessageJoin, false)
		}

	case bot.EventPlayerLeft:
		if ev.Username != s.username {
			m.relayChat(s, ev.Username, ev.Username+" left the game", store.MessageLeave, false)
		}

	case bot.EventDeath:
		m.relayChat(s, s.username, s.username+" died", store.MessageDeath, false)

	case bot.EventError:
		msg := errText(ev.Err)
		m.record(s, store.LevelError, "Bot error: "+msg)
		s.send(protocol.NewBotError(msg))
	}

	return false
}

// promote moves a connecting session to live. It reports false when the
// attempt was superseded or cancelled in the meantime.
func (m *Manager) promote(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending[s.ID] != s {
		m.shutdown(s, causeReplaced, "superseded by a newer connection attempt")
		return false
	}
	delete(m.pending, s.ID)

	if old, ok := m.registry.Get(s.ID); ok {
		m.registry.Remove(s.ID)
		m.shutdown(old, causeReplaced, "replaced by a new session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return false
	}
	s.state = StateLive
	if name := s.client.Username(); name != "" {
		s.username = name
	}
	m.registry.Put(s.ID, s)

	connected := true
	m.updateConnection(s, store.ConnectionUpdate{IsConnected: &connected})
	m.record(s, store.LevelInfo, "Successfully logged in to "+s.Server)
	s.send(protocol.NewBotConnected(s.ID, s.username))
	if pos, ok := s.client.Position(); ok {
		s.send(protocol.NewPositionUpdate(pos))
	}
	s.ticker = time.NewTicker(m.opts.TelemetryInterval)

	logger.Info("bot logged in", map[string]any{
		"connection_id": s.ID,
		"username":      s.username,
		"server":        s.Server,
	})

	return true
}

// tick samples telemetry. It is inert once the socket is gone or the
// client stops being ready.
func (m *Manager) tick(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLive || !s.socket.Open() || !s.client.Ready() {
		return
	}

	ping := s.client.Ping()
	s.send(protocol.NewPingUpdate(ping))

	snap := presence.Snapshot{
		ConnectionID: s.ID,
		Username:     s.username,
		Ping:         ping,
		UpdatedAt:    time.Now().UTC(),
	}
	if pos, ok := s.client.Position(); ok {
		s.send(protocol.NewPositionUpdate(pos))
		snap.X, snap.Y, snap.Z, snap.HasPosition = pos.X, pos.Y, pos.Z, true
	}

	m.updateConnection(s, store.ConnectionUpdate{LastPing: &ping})
	s.journal.submit("put presence", func(ctx context.Context) error {
		return m.presence.Put(ctx, snap)
	})
}

func (m *Manager) terminate(s *Session, c cause, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.registry.Get(s.ID); ok && cur == s {
		m.registry.Remove(s.ID)
	}
	if m.pending[s.ID] == s {
		delete(m.pending, s.ID)
	}
	m.shutdown(s, c, reason)
}

// shutdown moves s to terminated exactly once: it stops the ticker, quits
// the client and, for a live session, records and announces the end.
// Callers hold m.mu and have already unregistered s.
func (m *Manager) shutdown(s *Session, c cause, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return false
	}
	wasLive := s.state == StateLive
	s.state = StateTerminated

	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stop)
	s.client.Quit(reason)

	if wasLive {
		// A replaced session hands the record and presence entry to its
		// successor, whose writes go through a different journal.
		if c != causeReplaced {
			disconnected := false
			m.updateConnection(s, store.ConnectionUpdate{IsConnected: &disconnected})
			s.journal.submit("delete presence", func(ctx context.Context) error {
				return m.presence.Delete(ctx, s.ID)
			})
		}
		if c == causeEnded {
			m.record(s, store.LevelWarning, "Bot disconnected: "+reason)
		}
		s.send(protocol.NewBotDisconnected(s.ID))

		logger.Info("bot disconnected", map[string]any{
			"connection_id": s.ID,
			"reason":        reason,
		})
	}

	s.journal.close()
	return true
}

// failPending ends an attempt that errored before login.
func (m *Manager) failPending(s *Session, msg string) {
	m.mu.Lock()
	if m.pending[s.ID] == s {
		delete(m.pending, s.ID)
	}
	m.mu.Unlock()

	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = StateTerminated
	close(s.stop)
	s.mu.Unlock()

	s.client.Quit("connection failed")
	m.failConnect(s, msg)
}

// failConnect reports a connection that never reached login. No session
// is registered for it.
func (m *Manager) failConnect(s *Session, msg string) {
	logger.Warn("bot connection failed", map[string]any{
		"connection_id": s.ID,
		"error":         msg,
	})

	m.record(s, store.LevelError, "Connection failed: "+msg)
	s.send(protocol.NewConnectionError(msg))
	s.journal.close()
}

// ensureConnection creates the connection record when the request did
// not come through the REST API first.
func (m *Manager) ensureConnection(s *Session) {
	rec := store.Connection{
		ID:       s.ID,
		Username: s.username,
		ServerIP: s.Server,
		Version:  s.Version,
	}
	s.journal.submit("ensure connection", func(ctx context.Context) error {
		_, err := m.store.GetConnection(ctx, rec.ID)
		if errors.Is(err, store.ErrNotFound) {
			_, err = m.store.CreateConnection(ctx, rec)
		}
		return err
	})
}

func (m *Manager) updateConnection(s *Session, u store.ConnectionUpdate) {
	s.journal.submit("update connection", func(ctx context.Context) error {
		err := m.store.UpdateConnection(ctx, s.ID, u)
		if errors.Is(err, store.ErrNotFound) {
			// The record was deleted while the session was winding down.
			return nil
		}
		return err
	})
}

// relayChat persists a chat entry and sends the same record to the socket.
func (m *Manager) relayChat(s *Session, username, text string, t store.MessageType, isCommand bool) {
	msg := store.ChatMessage{
		ID:           uuid.NewString(),
		ConnectionID: s.ID,
		Username:     username,
		Message:      text,
		MessageType:  t,
		IsCommand:    isCommand,
		Timestamp:    time.Now().UTC(),
	}
	s.journal.submit("create chat message", func(ctx context.Context) error {
		return m.store.CreateChatMessage(ctx, msg)
	})
	s.send(protocol.NewChatMessage(msg))
}

func (m *Manager) record(s *Session, level store.LogLevel, text string) {
	entry := store.LogEntry{
		ID:           uuid.NewString(),
		ConnectionID: s.ID,
		Level:        level,
		Message:      text,
		Timestamp:    time.Now().UTC(),
	}
	s.journal.submit("create log", func(ctx context.Context) error {
		return m.store.CreateLog(ctx, entry)
	})
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
