package main

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authbridge/internal/auth/handler"
	"authbridge/internal/auth/provider"
	"authbridge/internal/auth/provider/firebase"
	"authbridge/internal/auth/provider/supabase"
	"authbridge/internal/auth/service"
	"authbridge/internal/platform/config"
	"authbridge/internal/platform/httpserver"
	"authbridge/internal/platform/logger"
	"authbridge/internal/platform/metrics"
	"authbridge/internal/platform/otel"
)

const serviceName = "authbridge"

func main() {
	if err := run(); err != nil {
		slog.Error("authbridge exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", "error", err)
		}
	}()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	name := cfg.ProviderName()
	if err := registry.InitializeAll(ctx, name); err != nil {
		return fmt.Errorf("initialize %s: %w", name, err)
	}

	authService, err := service.New(registry, name,
		service.WithLogger(log),
		service.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	handler.New(authService, log, cfg.Server.RequestTimeout).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r, cfg.Server.RequestTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting authbridge", "addr", cfg.Server.Addr, "provider", name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildRegistry registers every known adapter. Only the selected one is
// ever constructed.
func buildRegistry(cfg config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	factories := map[provider.Name]provider.Factory{
		provider.NameFirebase: func() provider.Provider {
			return firebase.New(firebase.Config{
				APIKey:  cfg.Firebase.APIKey,
				BaseURL: cfg.Firebase.BaseURL,
				Timeout: cfg.Firebase.Timeout,
			})
		},
		provider.NameSupabase: func() provider.Provider {
			return supabase.New(supabase.Config{
				URL:     cfg.Supabase.URL,
				AnonKey: cfg.Supabase.AnonKey,
				Timeout: cfg.Supabase.Timeout,
			})
		},
	}
	for name, factory := range factories {
		if err := registry.Register(name, factory); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return registry, nil
}
