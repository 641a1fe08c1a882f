package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteScheme prefixes connection URIs served by DialSQLite,
// e.g. "sqlite:///var/lib/portfolio/contact.db" or "sqlite::memory:".
const SQLiteScheme = "sqlite:"

const sqliteTimeFormat = time.RFC3339Nano

//go:embed migrations/sqlite.sql
var sqliteSchema string

// SQLiteHandle is a single-node ConnectionHandle and RateLimitTable backed by
// an embedded SQLite database.
type SQLiteHandle struct {
	db *sql.DB
}

var (
	_ ConnectionHandle = (*SQLiteHandle)(nil)
	_ RateLimitTable   = (*SQLiteHandle)(nil)
)

// Dial opens a handle for cfg.URI, choosing SQLite for sqlite: URIs and
// PostgreSQL for everything else.
func Dial(ctx context.Context, cfg DialConfig) (ConnectionHandle, error) {
	if strings.HasPrefix(cfg.URI, SQLiteScheme) {
		return DialSQLite(ctx, cfg)
	}
	return DialPostgres(ctx, cfg)
}

// DialSQLite opens the database named by cfg.URI and applies the embedded schema.
func DialSQLite(ctx context.Context, cfg DialConfig) (ConnectionHandle, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(cfg.URI, SQLiteScheme), "//")
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidURI
	}
	if path != ":memory:" {
		path = filepath.Clean(path)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteHandle{db: db}, nil
}

func (h *SQLiteHandle) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *SQLiteHandle) Close() {
	if err := h.db.Close(); err != nil {
		slog.Warn("close sqlite db", "error", err)
	}
}

func (h *SQLiteHandle) InsertSubmission(ctx context.Context, sub *model.ContactSubmission) error {
	id := uuid.NewString()
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO contact_submissions (id, name, email, subject, message, source_identifier, created_at)
		 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
		id, sub.Name, sub.Email, sub.Subject, sub.Message, sub.SourceIdentifier,
		sub.CreatedAt.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return err
	}
	sub.ID = id
	return nil
}

// HitRateLimit runs the decision inside a write transaction; the seeding
// INSERT takes the write lock before the row is read.
func (h *SQLiteHandle) HitRateLimit(ctx context.Context, clientID string, now time.Time, window time.Duration, limit int) (model.RateLimitRecord, bool, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RateLimitRecord{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO rate_limits (client_identifier, window_start, count) VALUES (?, ?, 0)`,
		clientID, now.UnixMicro(),
	); err != nil {
		return model.RateLimitRecord{}, false, fmt.Errorf("seed rate limit row: %w", err)
	}

	var startMicros int64
	current := model.RateLimitRecord{ClientIdentifier: clientID}
	if err := tx.QueryRowContext(ctx,
		`SELECT window_start, count FROM rate_limits WHERE client_identifier = ?`,
		clientID,
	).Scan(&startMicros, &current.Count); err != nil {
		return model.RateLimitRecord{}, false, fmt.Errorf("read rate limit row: %w", err)
	}
	current.WindowStart = time.UnixMicro(startMicros).UTC()

	rec, allowed := current.Hit(clientID, now, window, limit)
	if allowed {
		if _, err := tx.ExecContext(ctx,
			`UPDATE rate_limits SET window_start = ?, count = ? WHERE client_identifier = ?`,
			rec.WindowStart.UnixMicro(), rec.Count, clientID,
		); err != nil {
			return model.RateLimitRecord{}, false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.RateLimitRecord{}, false, err
	}
	return rec, allowed, nil
}

func (h *SQLiteHandle) ReleaseRateLimit(ctx context.Context, clientID string, windowStart time.Time) error {
	_, err := h.db.ExecContext(ctx,
		`UPDATE rate_limits SET count = count - 1
		 WHERE client_identifier = ? AND window_start = ? AND count > 0`,
		clientID, windowStart.UnixMicro(),
	)
	return err
}

func (h *SQLiteHandle) PruneRateLimits(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_start < ?`, cutoff.UnixMicro())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountSubmissions returns the number of stored submissions.
func (h *SQLiteHandle) CountSubmissions(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_submissions`).Scan(&n)
	return n, err
}

// FindSubmission loads one stored submission by id.
func (h *SQLiteHandle) FindSubmission(ctx context.Context, id string) (*model.ContactSubmission, error) {
	var (
		sub       model.ContactSubmission
		source    sql.NullString
		createdAt string
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT id, name, email, subject, message, source_identifier, created_at
		 FROM contact_submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.Message, &source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sub.SourceIdentifier = source.String
	if sub.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &sub, nil
}
