package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bot-panel/internal/presence"
	"bot-panel/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	live         map[string]bool
	disconnected []string
}

func (f *fakeSessions) Live(id string) bool { return f.live[id] }

func (f *fakeSessions) Disconnect(id string) {
	f.disconnected = append(f.disconnected, id)
	delete(f.live, id)
}

type fakePresence struct {
	snaps map[string]presence.Snapshot
	err   error
}

func (p *fakePresence) Put(_ context.Context, s presence.Snapshot) error {
	p.snaps[s.ConnectionID] = s
	return nil
}

func (p *fakePresence) Get(_ context.Context, id string) (*presence.Snapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	s, ok := p.snaps[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (p *fakePresence) Delete(_ context.Context, id string) error {
	delete(p.snaps, id)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	gw       *store.Memory
	sessions *fakeSessions
	presence *fakePresence
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		router:   gin.New(),
		gw:       store.NewMemory(),
		sessions: &fakeSessions{live: map[string]bool{}},
		presence: &fakePresence{snaps: map[string]presence.Snapshot{}},
	}
	NewHandler(env.gw, env.sessions, env.presence).RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, id string) {
	t.Helper()
	_, err := e.gw.CreateConnection(context.Background(), store.Connection{
		ID:       id,
		Username: "Bob",
		ServerIP: "mc.example.com",
		Version:  "1.20.1",
	})
	require.NoError(t, err)
}

func TestCreateAndGetConnection(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/connections", `{"username":"Bob","serverIp":"mc.example.com:25566","version":"1.20.1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created store.Connection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Bob", created.Username)
	assert.Equal(t, "mc.example.com:25566", created.ServerIP)
	assert.False(t, created.IsConnected)
	assert.Nil(t, created.LastPing)

	w = env.do(http.MethodGet, "/api/connections/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"serverIp":"mc.example.com:25566"`)

	w = env.do(http.MethodGet, "/api/connections", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []store.Connection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestCreateConnectionValidation(t *testing.T) {
	env := newEnv(t)

	cases := map[string]string{
		"malformed":    `{"username":`,
		"no username":  `{"serverIp":"host"}`,
		"no server":    `{"username":"Bob"}`,
		"bad port":     `{"username":"Bob","serverIp":"host:abc"}`,
		"blank fields": `{"username":"  ","serverIp":" "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/connections", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestListEmptyIsArray(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodGet, "/api/connections", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUnknownConnection(t *testing.T) {
	env := newEnv(t)
	for _, path := range []string{
		"/api/connections/nope",
		"/api/connections/nope/messages",
		"/api/connections/nope/logs",
		"/api/connections/nope/status",
	} {
		w := env.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w := env.do(http.MethodDelete, "/api/connections/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessagesAndLogs(t *testing.T) {
	env := newEnv(t)
	env.seed(t, "c1")
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, env.gw.CreateChatMessage(ctx, store.ChatMessage{
		ID: "m2", ConnectionID: "c1", Username: "Alice", Message: "second",
		MessageType: store.MessageChat, Timestamp: now.Add(time.Second),
	}))
	require.NoError(t, env.gw.CreateChatMessage(ctx, store.ChatMessage{
		ID: "m1", ConnectionID: "c1", Username: "Bob", Message: "/help",
		MessageType: store.MessageConsole, IsCommand: true, Timestamp: now,
	}))
	require.NoError(t, env.gw.CreateLog(ctx, store.LogEntry{
		ID: "l1", ConnectionID: "c1", Level: store.LevelInfo,
		Message: "Executed command: /help", Timestamp: now,
	}))

	w := env.do(http.MethodGet, "/api/connections/c1/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []store.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.True(t, msgs[0].IsCommand)
	assert.Equal(t, "m2", msgs[1].ID)

	w = env.do(http.MethodGet, "/api/connections/c1/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var logs []store.LogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, store.LevelInfo, logs[0].Level)
}

func TestStatus(t *testing.T) {
	env := newEnv(t)
	env.seed(t, "c1")

	w := env.do(http.MethodGet, "/api/connections/c1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Connection store.Connection   `json:"connection"`
		Live       bool               `json:"live"`
		Telemetry  *presence.Snapshot `json:"telemetry"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "c1", body.Connection.ID)
	assert.False(t, body.Live)
	assert.Nil(t, body.Telemetry)

	env.sessions.live["c1"] = true
	env.presence.snaps["c1"] = presence.Snapshot{ConnectionID: "c1", Username: "Bob", Ping: 42}

	w = env.do(http.MethodGet, "/api/connections/c1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Live)
	require.NotNil(t, body.Telemetry)
	assert.Equal(t, 42, body.Telemetry.Ping)
}

func TestStatusPresenceOutage(t *testing.T) {
	env := newEnv(t)
	env.seed(t, "c1")
	env.presence.err = errors.New("redis down")

	w := env.do(http.MethodGet, "/api/connections/c1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"telemetry":null`)
}

func TestDeleteDisconnectsFirst(t *testing.T) {
	env := newEnv(t)
	env.seed(t, "c1")
	env.sessions.live["c1"] = true

	w := env.do(http.MethodDelete, "/api/connections/c1", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"c1"}, env.sessions.disconnected)

	_, err := env.gw.GetConnection(context.Background(), "c1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
