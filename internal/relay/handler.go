// Package relay terminates control sockets and translates their frames
// into session operations.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bot-panel/internal/logger"
	"bot-panel/internal/protocol"
	"bot-panel/internal/session"
	"bot-panel/internal/utils"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Sessions is the part of session.Manager the relay drives.
type Sessions interface {
	Connect(ctx context.Context, sock session.Socket, req session.ConnectRequest) error
	Disconnect(id string)
	DetachSocket(sock session.Socket)
	SendChat(id, text string)
	SendCommand(id, text string)
	Move(id, direction, action string) error
}

type Handler struct {
	sessions Sessions
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. An empty allowedOrigins list
// accepts any origin.
func NewHandler(sessions Sessions, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser client
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		logger.Warn("websocket upgrade failed", map[string]any{
			"remote": r.RemoteAddr,
			"error":  err,
		})
		return
	}

	c := newConn(utils.SocketID(), ws)
	logger.Info("control socket opened", map[string]any{
		"socket_id": c.id,
		"remote":    r.RemoteAddr,
	})

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return c.writePump(ctx) })
	g.Go(func() error {
		return c.readPump(ctx, func(ctx context.Context, raw []byte) {
			h.dispatch(ctx, c, raw)
		})
	})

	err = g.Wait()
	c.close()
	h.sessions.DetachSocket(c)

	fields := map[string]any{"socket_id": c.id}
	if err != nil {
		fields["error"] = err
	}
	logger.Info("control socket closed", fields)
}

func (h *Handler) dispatch(ctx context.Context, c *Conn, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		reply(c, protocol.NewError(protocol.InvalidFormatMessage))
		return
	}

	logger.Debug("control frame", map[string]any{
		"socket_id": c.id,
		"type":      env.Type,
	})

	switch env.Type {
	case protocol.TypeConnectBot:
		p, err := protocol.DecodePayload[protocol.ConnectBot](env)
		if err != nil {
			reject(c, err)
			return
		}
		// Failures are reported to the socket as connection_error.
		_ = h.sessions.Connect(ctx, c, session.ConnectRequest{
			ConnectionID: p.ConnectionID,
			Username:     p.Username,
			ServerIP:     p.ServerIP,
			Version:      p.Version,
		})

	case protocol.TypeDisconnectBot:
		p, err := protocol.DecodePayload[protocol.DisconnectBot](env)
		if err != nil {
			reject(c, err)
			return
		}
		h.sessions.Disconnect(p.ConnectionID)

	case protocol.TypeSendChat:
		p, err := protocol.DecodePayload[protocol.SendChat](env)
		if err != nil {
			reject(c, err)
			return
		}
		h.sessions.SendChat(p.ConnectionID, p.Message)

	case protocol.TypeSendCommand:
		p, err := protocol.DecodePayload[protocol.SendCommand](env)
		if err != nil {
			reject(c, err)
			return
		}
		h.sessions.SendCommand(p.ConnectionID, p.Command)

	case protocol.TypeMoveBot:
		p, err := protocol.DecodePayload[protocol.MoveBot](env)
		if err != nil {
			reject(c, err)
			return
		}
		if err := h.sessions.Move(p.ConnectionID, p.Direction, p.Action); err != nil {
			reject(c, err)
		}

	default:
		reject(c, fmt.Errorf("%w: %s", protocol.ErrUnknownMessage, env.Type))
	}
}

func reject(c *Conn, err error) {
	if errors.Is(err, protocol.ErrInvalidFormat) {
		reply(c, protocol.NewError(protocol.InvalidFormatMessage))
		return
	}
	reply(c, protocol.NewError(describe(err)))
}

func reply(c *Conn, env protocol.Envelope) {
	if err := c.Send(env); err != nil {
		logger.Debug("reply not sent", map[string]any{
			"socket_id": c.id,
			"error":     err,
		})
	}
}

// describe drops the package prefix from an error for display.
func describe(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		msg = rest
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
