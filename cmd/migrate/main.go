package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/repository"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   apply pending migrations
  fresh       drop all tables, then apply every migration in order
  prune       delete rate-limit rows whose window has ended`)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")
	logging.Setup()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	backend, err := config.LoadBackend()
	if err != nil {
		logging.Fatal("invalid backend configuration", "error", err)
	}
	if backend.URI == "" {
		logging.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	if cmd == "prune" {
		runPrune(ctx, backend)
		return
	}
	if strings.HasPrefix(backend.URI, repository.SQLiteScheme) {
		logging.Fatal("sqlite schemas are applied on connect; only prune is supported")
	}

	poolCfg, err := pgxpool.ParseConfig(backend.URI)
	if err != nil {
		logging.Fatal("invalid DATABASE_URL")
	}
	if backend.Database != "" {
		poolCfg.ConnConfig.Database = backend.Database
	} else if poolCfg.ConnConfig.Database == "" {
		poolCfg.ConnConfig.Database = repository.DefaultDatabase
	}
	poolCfg.ConnConfig.ConnectTimeout = backend.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logging.Fatal("connect failed", "cause", string(repository.Classify(err)))
	}
	defer pool.Close()

	migrationDir := findMigrationDir()

	switch cmd {
	case "":
		runIncremental(ctx, pool, migrationDir)
	case "fresh":
		runDropAll(ctx, pool, migrationDir)
		runIncremental(ctx, pool, migrationDir)
	default:
		usage()
	}
}

// runPrune deletes rate-limit rows older than one window through the same
// dialer the server uses.
func runPrune(ctx context.Context, backend config.Backend) {
	server, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, backend.ConnectTimeout)
	defer cancel()
	h, err := repository.Dial(dialCtx, repository.DialConfig{
		URI:      backend.URI,
		Database: backend.Database,
		Timeout:  backend.ConnectTimeout,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidURI) {
			logging.Fatal("invalid DATABASE_URL")
		}
		logging.Fatal("connect failed", "cause", string(repository.Classify(err)))
	}
	defer h.Close()

	src := staticSource{h}
	limiter := ratelimit.NewTableLimiter(ratelimit.Policy{Limit: server.RateLimitMax, Window: server.RateLimitWindow}, src)
	sweeper := ratelimit.NewSweeper(limiter, server.RateLimitWindow, time.Hour)
	n := sweeper.SweepOnce(ctx)
	slog.Info("prune completed", "deleted", n)
}

type staticSource struct{ h repository.ConnectionHandle }

func (s staticSource) Get(ctx context.Context) (repository.ConnectionHandle, error) { return s.h, nil }

func findMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

// collectUpFiles returns the .up.sql file names in order.
func collectUpFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Fatal("read migrations dir failed", "error", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}

func ensureSchemaMigrations(ctx context.Context, pool *pgxpool.Pool) {
	_, _ = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
}

// ---------------------------------------------------------------------------
// (default) incremental migrations
// ---------------------------------------------------------------------------
func runIncremental(ctx context.Context, pool *pgxpool.Pool, dir string) {
	ensureSchemaMigrations(ctx, pool)

	upFiles := collectUpFiles(dir)
	applied := 0
	for i, filename := range upFiles {
		name := strings.TrimSuffix(filename, ".up.sql")

		var exists bool
		_ = pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists)
		if exists {
			continue
		}

		sql, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			logging.Fatal("read migration failed", "migration", name, "error", err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			logging.Fatal("migration failed", "migration", name, "error", err)
		}
		if _, err := pool.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			logging.Fatal("record migration failed", "migration", name, "error", err)
		}
		applied++
		slog.Info("migration completed", "number", i+1, "migration", name)
	}

	if applied == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", applied)
	}
}

// ---------------------------------------------------------------------------
// drop all tables
// ---------------------------------------------------------------------------
func runDropAll(ctx context.Context, pool *pgxpool.Pool, dir string) {
	slog.Info("dropping all tables")
	sql, err := os.ReadFile(filepath.Join(dir, "000_drop_all.sql"))
	if err != nil {
		logging.Fatal("read 000_drop_all.sql failed", "error", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("drop all failed", "error", err)
	}
	slog.Info("all tables dropped")
}
