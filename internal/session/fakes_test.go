package session

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"
	"bot-panel/internal/protocol"
	"bot-panel/internal/store"

	"github.com/stretchr/testify/require"
)

type controlCall struct {
	control bot.Control
	on      bool
}

type fakeClient struct {
	events   chan bot.Event
	username string

	mu       sync.Mutex
	chats    []string
	controls []controlCall
	ping     int
	pos      bot.Position
	hasPos   bool
	ready    bool
	quits    int
	chatErr  error
}

var _ bot.Client = (*fakeClient)(nil)

func newFakeClient(username string) *fakeClient {
	return &fakeClient{
		events:   make(chan bot.Event, 64),
		username: username,
		ready:    true,
	}
}

func (c *fakeClient) Events() <-chan bot.Event { return c.events }
func (c *fakeClient) Username() string         { return c.username }

func (c *fakeClient) Chat(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chatErr != nil {
		return c.chatErr
	}
	c.chats = append(c.chats, text)
	return nil
}

func (c *fakeClient) SetControlState(control bot.Control, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls = append(c.controls, controlCall{control, on})
	return nil
}

func (c *fakeClient) Ping() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ping
}

func (c *fakeClient) Position() (bot.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos, c.hasPos
}

func (c *fakeClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeClient) Quit(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quits++
	c.ready = false
}

func (c *fakeClient) quitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quits
}

func (c *fakeClient) chatLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.chats...)
}

func (c *fakeClient) controlLog() []controlCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]controlCall{}, c.controls...)
}

type fakeDialer struct {
	mu        sync.Mutex
	dials     []bot.Options
	clients   []*fakeClient
	err       error
	autoLogin bool
	setup     func(*fakeClient)
}

func (d *fakeDialer) Dial(_ context.Context, opts bot.Options) (bot.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials = append(d.dials, opts)
	if d.err != nil {
		return nil, d.err
	}

	c := newFakeClient(opts.Username)
	if d.setup != nil {
		d.setup(c)
	}
	if d.autoLogin {
		c.events <- bot.Event{Kind: bot.EventLogin}
	}
	d.clients = append(d.clients, c)
	return c, nil
}

func (d *fakeDialer) client(i int) *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clients[i]
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

type fakeSocket struct {
	mu     sync.Mutex
	frames []protocol.Envelope
	closed bool
}

func (s *fakeSocket) Send(env protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, env)
	return nil
}

func (s *fakeSocket) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *fakeSocket) setClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSocket) of(t protocol.MessageType) []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []protocol.Envelope
	for _, f := range s.frames {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (s *fakeSocket) count(t protocol.MessageType) int {
	return len(s.of(t))
}

func (s *fakeSocket) types() []protocol.MessageType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.MessageType, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f.Type)
	}
	return out
}

const waitFor = 2 * time.Second
const pollEvery = 5 * time.Millisecond

type harness struct {
	m      *Manager
	gw     *store.Memory
	dialer *fakeDialer
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	return newHarnessWith(t, opts, nil)
}

// newHarnessWith lets wrap put a gateway in front of the harness store.
func newHarnessWith(t *testing.T, opts Options, wrap func(*store.Memory) store.Gateway) *harness {
	t.Helper()
	if opts.TelemetryInterval == 0 {
		opts.TelemetryInterval = time.Hour
	}
	h := &harness{
		gw:     store.NewMemory(),
		dialer: &fakeDialer{},
	}
	var gw store.Gateway = h.gw
	if wrap != nil {
		gw = wrap(h.gw)
	}
	h.m = NewManager(h.dialer, gw, nil, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = h.m.Close(ctx)
	})
	return h
}

// connectLive connects id on sock and waits for bot_connected.
func (h *harness) connectLive(t *testing.T, sock *fakeSocket, id, username string) *fakeClient {
	t.Helper()
	before := h.dialer.dialCount()
	require.NoError(t, h.m.Connect(context.Background(), sock, ConnectRequest{
		ConnectionID: id,
		Username:     username,
		ServerIP:     "host:25566",
		Version:      "1.20.1",
	}))
	c := h.dialer.client(before)
	c.events <- bot.Event{Kind: bot.EventLogin}
	require.Eventually(t, func() bool {
		s, ok := h.m.Get(id)
		return ok && s.client == bot.Client(c)
	}, waitFor, pollEvery)
	return c
}

func (h *harness) chatMessages(id string) []store.ChatMessage {
	msgs, _ := h.gw.GetChatMessages(context.Background(), id)
	return msgs
}

func (h *harness) logs(id string, level store.LogLevel) []store.LogEntry {
	all, _ := h.gw.GetLogs(context.Background(), id)
	var out []store.LogEntry
	for _, l := range all {
		if l.Level == level {
			out = append(out, l)
		}
	}
	return out
}

func (h *harness) connection(id string) *store.Connection {
	c, _ := h.gw.GetConnection(context.Background(), id)
	return c
}

func decode[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// slowGateway holds chat writes until release is closed.
type slowGateway struct {
	*store.Memory
	release chan struct{}
}

func (g *slowGateway) CreateChatMessage(ctx context.Context, m store.ChatMessage) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.Memory.CreateChatMessage(ctx, m)
}

// syncBuffer collects log lines written from journal workers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	var b syncBuffer
	logger.SetOutput(&b)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &b
}
