package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bot-panel/internal/logger"
	"bot-panel/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 128
)

var (
	ErrSocketClosed = errors.New("relay: socket closed")
	ErrBufferFull   = errors.New("relay: send buffer full")
)

// Conn is one control socket. Send never blocks: frames go through a
// bounded queue drained by the write pump.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	open      atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn) *Conn {
	c := &Conn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	c.open.Store(true)
	return c
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Open() bool { return c.open.Load() }

func (c *Conn) Send(env protocol.Envelope) error {
	if !c.open.Load() {
		return ErrSocketClosed
	}

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrSocketClosed
	default:
		logger.Warn("control socket send buffer full, frame dropped", map[string]any{
			"socket_id": c.id,
			"type":      env.Type,
		})
		return ErrBufferFull
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.done)
		_ = c.ws.Close()
	})
}

// readPump hands every inbound frame to handle until the peer goes away.
func (c *Conn) readPump(ctx context.Context, handle func(ctx context.Context, raw []byte)) error {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return err
			}
			return nil
		}
		handle(ctx, raw)
	}
}

func (c *Conn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-c.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
