package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yanqian/doctor-faq/internal/infra/config"
)

const defaultShutdownGrace = 10 * time.Second

// App owns the HTTP server lifecycle of the FAQ API.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.serve(ctx, listener)
}

func (a *App) serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", listener.Addr().String())
		errCh <- a.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownGrace())
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// shutdownGrace lets the slowest allowed response finish before exiting.
func (a *App) shutdownGrace() time.Duration {
	if a.cfg != nil && a.cfg.HTTP.WriteTimeout > 0 {
		return a.cfg.HTTP.WriteTimeout
	}
	return defaultShutdownGrace
}
