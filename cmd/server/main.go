package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bot-panel/internal/app"
	"bot-panel/internal/config"
	"bot-panel/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:          "bot-panel",
		Short:        "Control panel server for game bots",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.FromViper(v))
		},
	}

	flags := rootCmd.Flags()
	flags.String("port", "", "HTTP listen port (env APP_PORT)")
	flags.String("static-dir", "", "directory holding the panel UI (env STATIC_DIR)")
	flags.Bool("debug", false, "enable debug logging (env DEBUG)")
	_ = v.BindPFlag("app_port", flags.Lookup("port"))
	_ = v.BindPFlag("static_dir", flags.Lookup("static-dir"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))

	return rootCmd
}

func serve(parent context.Context, cfg config.Config) error {
	logger.SetDebug(cfg.Debug)

	ctx, stop := signal.NotifyContext(
		parent,
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, nil)
	if err != nil {
		logger.Error("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("bot-panel started", map[string]any{
		"port":       cfg.AppPort,
		"static_dir": cfg.StaticDir,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	logger.Info("bot-panel stopped cleanly", nil)
	return nil
}
