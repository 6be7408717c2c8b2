// Package app wires configuration, logging, services and HTTP routing into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"parulreports/internal/config"
	"parulreports/internal/infrastructure"
	"parulreports/internal/middleware"
	"parulreports/internal/services"
	transport "parulreports/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

// App is the assembled application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	reportService := services.NewReportService(logger)

	router := buildRouter(cfg, logger, reportService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{cfg: cfg, logger: logger, server: server}, nil
}

func buildRouter(cfg *config.Config, logger *slog.Logger, reportService *services.ReportService) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Handle("/metrics", infrastructure.MetricsHandler())

	r.Route("/api", func(api chi.Router) {
		transport.NewHealthHandler(Version).RegisterRoutes(api)

		api.Group(func(limited chi.Router) {
			limited.Use(middleware.RateLimit(cfg.Server.RateLimit))
			transport.NewReportHandler(reportService, cfg.Upload, logger).RegisterRoutes(limited)
		})
	})

	return r
}

// Run starts the server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", slog.String("addr", a.server.Addr), slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
