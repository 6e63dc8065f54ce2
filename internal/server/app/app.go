package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Rauks/Minecraft-RCON-Console/internal/server/config"
)

// App wires the config and the HTTP transport of the daemon.
type App struct {
	cfg          config.ServerConfig
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownWait time.Duration

	// streams is the parent of every request context. It is canceled ahead
	// of Shutdown so event streams and console sessions let go.
	streams      context.Context
	cancelStream context.CancelFunc
}

// New constructs the daemon application.
func New(cfg config.ServerConfig, logger *slog.Logger, mux http.Handler) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if mux == nil {
		mux = http.NewServeMux()
	}

	streams, cancel := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:              cfg.APIListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streams },
	}

	return &App{
		cfg:          cfg,
		logger:       logger,
		httpServer:   httpServer,
		shutdownWait: 15 * time.Second,
		streams:      streams,
		cancelStream: cancel,
	}, nil
}

// Run listens on the configured address and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln, blocking until context cancellation.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api server listening",
			"addr", ln.Addr().String(),
			"rcon", a.cfg.RCON().Address(),
			"www", a.cfg.WWWRoot,
		)
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.cancelStream()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownWait)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http shutdown", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		a.cancelStream()
		return err
	}
}
