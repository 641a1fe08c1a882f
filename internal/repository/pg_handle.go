package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/portfolio/backend/internal/model"
)

// DefaultDatabase is used when neither the URI nor DialConfig names a database.
const DefaultDatabase = "portfolio"

// PgHandle is the PostgreSQL implementation of ConnectionHandle and RateLimitTable.
type PgHandle struct {
	pool *pgxpool.Pool
}

var (
	_ ConnectionHandle = (*PgHandle)(nil)
	_ RateLimitTable   = (*PgHandle)(nil)
)

// NewPgHandle wraps an existing pool.
func NewPgHandle(pool *pgxpool.Pool) *PgHandle {
	return &PgHandle{pool: pool}
}

// DialPostgres は PostgreSQL 接続プールを生成し、疎通を確認する
func DialPostgres(ctx context.Context, cfg DialConfig) (ConnectionHandle, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, ErrInvalidURI
	}
	if cfg.Database != "" {
		poolCfg.ConnConfig.Database = cfg.Database
	} else if poolCfg.ConnConfig.Database == "" {
		poolCfg.ConnConfig.Database = DefaultDatabase
	}
	if cfg.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PgHandle{pool: pool}, nil
}

func (h *PgHandle) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

func (h *PgHandle) Close() {
	h.pool.Close()
}

// InsertSubmission inserts a contact_submissions row and populates sub.ID
// from the RETURNING clause.
func (h *PgHandle) InsertSubmission(ctx context.Context, sub *model.ContactSubmission) error {
	return h.pool.QueryRow(ctx,
		`INSERT INTO contact_submissions (name, email, subject, message, source_identifier, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 RETURNING id::text`,
		sub.Name, sub.Email, sub.Subject, sub.Message, sub.SourceIdentifier, sub.CreatedAt,
	).Scan(&sub.ID)
}

// HitRateLimit locks the client's row for the duration of the decision so
// that concurrent instances cannot both take the last slot.
func (h *PgHandle) HitRateLimit(ctx context.Context, clientID string, now time.Time, window time.Duration, limit int) (model.RateLimitRecord, bool, error) {
	var (
		rec     model.RateLimitRecord
		allowed bool
	)
	err := pgx.BeginFunc(ctx, h.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO rate_limits (client_identifier, window_start, count)
			 VALUES ($1, $2, 0)
			 ON CONFLICT (client_identifier) DO NOTHING`,
			clientID, now,
		); err != nil {
			return fmt.Errorf("seed rate limit row: %w", err)
		}

		var current model.RateLimitRecord
		current.ClientIdentifier = clientID
		if err := tx.QueryRow(ctx,
			`SELECT window_start, count FROM rate_limits
			 WHERE client_identifier = $1
			 FOR UPDATE`,
			clientID,
		).Scan(&current.WindowStart, &current.Count); err != nil {
			return fmt.Errorf("lock rate limit row: %w", err)
		}

		rec, allowed = current.Hit(clientID, now, window, limit)
		if !allowed {
			return nil
		}
		_, err := tx.Exec(ctx,
			`UPDATE rate_limits SET window_start = $2, count = $3
			 WHERE client_identifier = $1`,
			clientID, rec.WindowStart, rec.Count,
		)
		return err
	})
	if err != nil {
		return model.RateLimitRecord{}, false, err
	}
	return rec, allowed, nil
}

func (h *PgHandle) ReleaseRateLimit(ctx context.Context, clientID string, windowStart time.Time) error {
	_, err := h.pool.Exec(ctx,
		`UPDATE rate_limits SET count = count - 1
		 WHERE client_identifier = $1 AND window_start = $2 AND count > 0`,
		clientID, windowStart,
	)
	return err
}

func (h *PgHandle) PruneRateLimits(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := h.pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
