package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"
	"bot-panel/internal/presence"
	"bot-panel/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Sessions is the slice of session.Manager the REST API needs.
type Sessions interface {
	Live(id string) bool
	Disconnect(id string)
}

type Handler struct {
	store    store.Gateway
	sessions Sessions
	presence presence.Store
}

func NewHandler(
	gateway store.Gateway,
	sessions Sessions,
	pres presence.Store,
) *Handler {
	if pres == nil {
		pres = presence.Nop{}
	}
	return &Handler{
		store:    gateway,
		sessions: sessions,
		presence: pres,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/connections")
	api.GET("", h.list)
	api.POST("", h.create)
	api.GET("/:id", h.get)
	api.DELETE("/:id", h.delete)
	api.GET("/:id/messages", h.messages)
	api.GET("/:id/logs", h.logs)
	api.GET("/:id/status", h.status)

	if e, ok := r.(*gin.Engine); ok {
		for _, route := range e.Routes() {
			log.Printf("[ROUTE] %s %s", route.Method, route.Path)
		}
	}
}

type createRequest struct {
	Username string `json:"username"`
	ServerIP string `json:"serverIp"`
	Version  string `json:"version"`
}

func (h *Handler) list(c *gin.Context) {
	conns, err := h.store.ListConnections(c.Request.Context())
	if err != nil {
		h.internal(c, "list connections", err)
		return
	}
	if conns == nil {
		conns = []store.Connection{}
	}
	c.JSON(http.StatusOK, conns)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.ServerIP = strings.TrimSpace(req.ServerIP)
	if req.Username == "" || req.ServerIP == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "username and serverIp are required",
		})
		return
	}
	if _, _, err := bot.ParseAddress(req.ServerIP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	conn, err := h.store.CreateConnection(c.Request.Context(), store.Connection{
		ID:        uuid.NewString(),
		Username:  req.Username,
		ServerIP:  req.ServerIP,
		Version:   req.Version,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.internal(c, "create connection", err)
		return
	}

	logger.Info("connection created", map[string]any{
		"connection_id": conn.ID,
		"username":      conn.Username,
		"server":        conn.ServerIP,
	})
	c.JSON(http.StatusCreated, conn)
}

func (h *Handler) get(c *gin.Context) {
	conn, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")

	h.sessions.Disconnect(id)

	err := h.store.DeleteConnection(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	if err != nil {
		h.internal(c, "delete connection", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) messages(c *gin.Context) {
	if _, ok := h.lookup(c); !ok {
		return
	}
	msgs, err := h.store.GetChatMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internal(c, "get chat messages", err)
		return
	}
	if msgs == nil {
		msgs = []store.ChatMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) logs(c *gin.Context) {
	if _, ok := h.lookup(c); !ok {
		return
	}
	entries, err := h.store.GetLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.internal(c, "get logs", err)
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) status(c *gin.Context) {
	conn, ok := h.lookup(c)
	if !ok {
		return
	}

	// A presence outage degrades to "no telemetry" rather than failing.
	snap, err := h.presence.Get(c.Request.Context(), conn.ID)
	if err != nil {
		logger.Warn("presence lookup failed", map[string]any{
			"connection_id": conn.ID,
			"error":         err,
		})
		snap = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"connection": conn,
		"live":       h.sessions.Live(conn.ID),
		"telemetry":  snap,
	})
}

func (h *Handler) lookup(c *gin.Context) (*store.Connection, bool) {
	conn, err := h.store.GetConnection(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return nil, false
	}
	if err != nil {
		h.internal(c, "get connection", err)
		return nil, false
	}
	return conn, true
}

func (h *Handler) internal(c *gin.Context, op string, err error) {
	logger.Error(op+" failed", map[string]any{
		"path":  c.FullPath(),
		"error": err,
	})
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "internal error",
	})
}
