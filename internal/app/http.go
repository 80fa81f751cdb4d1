package app

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"bot-panel/internal/bot"
	"bot-panel/internal/bot/gomc"
	"bot-panel/internal/config"
	"bot-panel/internal/handler"
	"bot-panel/internal/middleware"
	"bot-panel/internal/relay"
	"bot-panel/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config, dialer bot.Dialer) (*gin.Engine, func(context.Context) error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	if dialer == nil {
		dialer = gomc.NewDialer()
	}

	opts := session.DefaultOptions()
	opts.TelemetryInterval = cfg.TelemetryInterval

	manager := session.NewManager(dialer, infra.Store, infra.Presence, opts)

	restHandler := handler.NewHandler(infra.Store, manager, infra.Presence)
	socketHandler := relay.NewHandler(manager, cfg.AllowedOrigins)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.GinRequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	restHandler.RegisterRoutes(router)

	router.GET("/ws", gin.WrapH(socketHandler))

	// ----------------------------
	// Control panel UI
	// ----------------------------

	if cfg.StaticDir != "" {
		router.Static("/assets", filepath.Join(cfg.StaticDir, "assets"))
		index := filepath.Join(cfg.StaticDir, "index.html")
		router.GET("/", func(c *gin.Context) {
			c.File(index)
		})
		// client-side routes fall back to the panel
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(index)
		})
	}

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func(ctx context.Context) error {
		return errors.Join(manager.Close(ctx), infra.Close())
	}, nil
}
