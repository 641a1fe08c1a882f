package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/portfolio/backend/internal/apperr"
	"golang.org/x/sync/singleflight"
)

// DialConfig carries what a Dialer needs to open a backend handle.
type DialConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// ConfigLoader reads the dial configuration. It is called for every fresh
// connect so that configuration changes are picked up after a failure.
type ConfigLoader func() (DialConfig, error)

// Dialer opens a new backend handle and verifies it once.
type Dialer func(ctx context.Context, cfg DialConfig) (ConnectionHandle, error)

const defaultConnectTimeout = 10 * time.Second

// Accessor owns the process-wide cached backend handle. Concurrent callers
// share one handle; a handle that fails its liveness probe is discarded and
// replaced by a single reconnect.
type Accessor struct {
	load ConfigLoader
	dial Dialer

	mu     sync.RWMutex
	handle ConnectionHandle
	group  singleflight.Group
}

// NewAccessor creates an Accessor. No connection is made until Get is called.
func NewAccessor(load ConfigLoader, dial Dialer) *Accessor {
	return &Accessor{load: load, dial: dial}
}

// Get returns a live handle, reusing the cached one when its probe succeeds.
// Errors are *apperr.Error of kind Configuration or BackendUnavailable.
func (a *Accessor) Get(ctx context.Context) (ConnectionHandle, error) {
	if h := a.cached(); h != nil {
		err := h.Ping(ctx)
		if err == nil {
			return h, nil
		}
		slog.Warn("cached backend handle failed liveness probe", "cause", string(Classify(err)))
		a.invalidate(h)
	}

	v, err, _ := a.group.Do("connect", func() (any, error) {
		// A concurrent caller may already have replaced the handle.
		if h := a.cached(); h != nil {
			return h, nil
		}
		return a.connect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(ConnectionHandle), nil
}

// Ping runs the liveness path of Get, which lets an Accessor serve as a DB.
func (a *Accessor) Ping(ctx context.Context) error {
	_, err := a.Get(ctx)
	return err
}

// Close releases the cached handle, if any.
func (a *Accessor) Close() {
	a.mu.Lock()
	h := a.handle
	a.handle = nil
	a.mu.Unlock()
	if h != nil {
		h.Close()
	}
}

func (a *Accessor) cached() ConnectionHandle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handle
}

func (a *Accessor) invalidate(h ConnectionHandle) {
	a.mu.Lock()
	owned := a.handle == h
	if owned {
		a.handle = nil
	}
	a.mu.Unlock()
	if owned {
		h.Close()
	}
}

func (a *Accessor) connect(ctx context.Context) (ConnectionHandle, error) {
	cfg, err := a.load()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "load backend configuration", err)
	}
	if cfg.URI == "" {
		return nil, apperr.New(apperr.KindConfiguration, "DATABASE_URL is not set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	// The dial is shared by every caller waiting on it, so one caller's
	// cancellation must not abort it.
	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	h, err := a.dial(dialCtx, cfg)
	if err != nil {
		if errors.Is(err, ErrInvalidURI) {
			return nil, apperr.Wrap(apperr.KindConfiguration, "parse backend configuration", ErrInvalidURI)
		}
		return nil, apperr.Backend(Classify(err), "connect to backend", err)
	}
	if err := h.Ping(dialCtx); err != nil {
		h.Close()
		return nil, apperr.Backend(Classify(err), "probe new backend handle", err)
	}

	a.mu.Lock()
	a.handle = h
	a.mu.Unlock()
	slog.Info("backend connection established")
	return h, nil
}
