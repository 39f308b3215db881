package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tupanlabs/zapgate/internal/config"
	"github.com/tupanlabs/zapgate/internal/credstore"
	"github.com/tupanlabs/zapgate/internal/httpapi"
	"github.com/tupanlabs/zapgate/internal/hub"
	"github.com/tupanlabs/zapgate/internal/session"
	"github.com/tupanlabs/zapgate/internal/wa"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dialer := wa.NewMeowDialer(cfg.DataDir, slog.Default())
	creds := credstore.New(cfg.DataDir)
	events := hub.New()
	registry := session.NewRegistry(dialer, creds, events, session.ReconnectPolicy{
		BaseDelay:   cfg.Reconnect.BaseDelay,
		MaxDelay:    cfg.Reconnect.MaxDelay,
		MaxAttempts: cfg.Reconnect.MaxAttempts,
	}, slog.Default())

	originAllowed := func(origin string) bool {
		for _, o := range cfg.AllowedOrigins {
			if o == origin {
				return true
			}
		}
		return false
	}

	api := httpapi.NewServer(registry, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AuthToken:      cfg.AuthToken,
		RateLimitRPM:   cfg.RateLimit.RPM,
		RateLimitBurst: cfg.RateLimit.Burst,
		EventsHandler:  events.Handler(originAllowed),
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("gateway listening", "addr", cfg.Listen, "data_dir", cfg.DataDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	registry.Shutdown(ctx)
	slog.Info("shutdown complete")
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
