package repository

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/portfolio/backend/internal/apperr"
)

// Postgres SQLSTATE codes for authentication failures.
const (
	sqlStateInvalidPassword      = "28P01"
	sqlStateInvalidAuthorization = "28000"
)

// Classify maps a connection failure to a backend cause for logging.
func Classify(err error) apperr.Cause {
	if err == nil {
		return apperr.CauseNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateInvalidPassword, sqlStateInvalidAuthorization:
			return apperr.CauseAuthentication
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return apperr.CauseTimeout
		}
		return apperr.CauseHostNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.CauseTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return apperr.CauseConnectionRefused
	}
	return apperr.CauseUnknown
}
