package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/handler"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
)

func main() {
	_ = godotenv.Load()
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	// The backend is dialled lazily; a missing DATABASE_URL shows up per request.
	accessor := repository.NewAccessor(loadDialConfig, repository.Dial)
	defer accessor.Close()

	policy := ratelimit.Policy{Limit: cfg.RateLimitMax, Window: cfg.RateLimitWindow}
	var (
		limiter ratelimit.Limiter
		pruner  ratelimit.Pruner
	)
	switch cfg.RateLimitStore {
	case config.StoreTable:
		l := ratelimit.NewTableLimiter(policy, accessor)
		limiter, pruner = l, l
	default:
		l := ratelimit.NewMemoryLimiter(policy)
		limiter, pruner = l, l
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := ratelimit.NewSweeper(pruner, cfg.RateLimitWindow, cfg.RateLimitSweep)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	contactService := service.NewContactService(accessor)
	h := handler.New(accessor, cfg.AllowedOrigin)
	contactHandler := handler.NewContactHandler(contactService, limiter, cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.NewRouter(h, contactHandler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.ListenAddr, "rate_limit_store", cfg.RateLimitStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("server failed", "error", err)
			stop()
			<-sweepDone
			accessor.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	<-sweepDone
	slog.Info("server stopped")
}

func loadDialConfig() (repository.DialConfig, error) {
	b, err := config.LoadBackend()
	if err != nil {
		return repository.DialConfig{}, err
	}
	return repository.DialConfig{URI: b.URI, Database: b.Database, Timeout: b.ConnectTimeout}, nil
}
