// Command web serves the spool export HTTP API: paged previews of
// date-filtered table extracts and xlsx / gzip CSV downloads.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"dataspool/internal/config"
	apierrors "dataspool/internal/errors"
	"dataspool/internal/infrastructure"
	"dataspool/internal/metrics"
	"dataspool/internal/middleware"
	"dataspool/internal/services"
	"dataspool/internal/spool"
	transporthttp "dataspool/internal/transport/http"
)

// Version is stamped at build time
var Version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	tracer, shutdownTracing, err := infrastructure.InitializeTracing(
		infrastructure.DefaultTracingConfig(), logger)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}

	logger.Info("starting spool export server",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("database", cfg.Database.String()),
		slog.Int("tables", len(cfg.Tables)))

	m := metrics.New()
	extractor := spool.NewExtractor(spool.TableMap(cfg.Tables), logger)
	service := services.NewExportService(cfg, extractor.Fetch, logger, tracer, m)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.Server.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.Method(http.MethodGet, "/healthz", transporthttp.NewHealthHandler(Version))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Mount("/api/spool", transporthttp.NewSpoolHandler(service, logger, errorHandler).Routes())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
