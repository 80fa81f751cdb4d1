package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `[1,2]`, `{"data":{}}`, `{"type":""}`} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidFormat, raw)
	}
}

func TestDecodePayloadConnectBot(t *testing.T) {
	env, err := Decode([]byte(`{"type":"connect_bot","data":{"connectionId":"c1","username":"Bob","serverIp":"host:25566","version":"1.20.1"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeConnectBot, env.Type)

	p, err := DecodePayload[ConnectBot](env)
	require.NoError(t, err)
	assert.Equal(t, ConnectBot{ConnectionID: "c1", Username: "Bob", ServerIP: "host:25566", Version: "1.20.1"}, p)
}

func TestDecodePayloadMissingFields(t *testing.T) {
	env, err := Decode([]byte(`{"type":"move_bot","data":{"connectionId":"c1"}}`))
	require.NoError(t, err)

	_, err = DecodePayload[MoveBot](env)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "action, direction")
}

func TestDecodePayloadBadData(t *testing.T) {
	_, err := DecodePayload[SendChat](Envelope{Type: TypeSendChat})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = DecodePayload[SendChat](Envelope{Type: TypeSendChat, Data: json.RawMessage(`"text"`)})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPositionUpdateUsesTwoDecimals(t *testing.T) {
	env := NewPositionUpdate(bot.Position{X: 1, Y: 64.126, Z: -3.14159})

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"position_update","data":{"x":"1.00","y":"64.13","z":"-3.14"}}`, string(b))
}

func TestChatMessageCarriesRecord(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	env := NewChatMessage(store.ChatMessage{
		ID:           "m1",
		ConnectionID: "c1",
		Username:     "Bob",
		Message:      "/help",
		MessageType:  store.MessageConsole,
		IsCommand:    true,
		Timestamp:    ts,
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "console", got["messageType"])
	assert.Equal(t, true, got["isCommand"])
	assert.Equal(t, "2024-01-02T03:04:05Z", got["timestamp"])
}
