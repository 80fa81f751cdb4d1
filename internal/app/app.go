package app

import (
	"context"
	"errors"
	"net/http"

	"bot-panel/internal/bot"
	"bot-panel/internal/config"
)

type App struct {
	httpServer *http.Server
	cleanup    func(context.Context) error
}

// New wires the panel. A nil dialer selects the go-mc client.
func New(ctx context.Context, cfg config.Config, dialer bot.Dialer) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg, dialer)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

func (a *App) Run() error {
	if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then ends every bot session and
// releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup(ctx)
	}
	return nil
}
