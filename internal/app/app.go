// Package app assembles the auth core: infrastructure, services,
// router and lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/unstable-code/angple/internal/config"
)

// App owns the HTTP server and the resources it must release on stop.
type App struct {
	server  *http.Server
	cleanup func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		server: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cleanup: cleanup,
	}, nil
}

// Run blocks serving requests until Shutdown is called or the listener
// fails.
func (a *App) Run() error {
	return a.server.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline, then
// releases infrastructure handles.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
