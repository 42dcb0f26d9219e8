package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tourvisto/pkg/restcountries"
)

var ErrEmptyCatalog = errors.New("country source returned no countries")

// Source is the public country-data endpoint.
type Source interface {
	All(ctx context.Context) ([]restcountries.Record, error)
}

type State int

const (
	StateLoading State = iota
	StateError
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Result is the outcome of a catalog load.
type Result struct {
	State     State
	Countries Catalog
	// Fallback is set when Countries came from the offline snapshot.
	Fallback bool
	Err      error
	LoadedAt time.Time
}

type LoaderConfig struct {
	// TTL is how long a catalog fetched from the source is reused.
	TTL time.Duration
	// RetryAfter bounds how often the source is retried after a failure.
	RetryAfter  time.Duration
	FallbackCSV string
	Logger      *slog.Logger
}

// Loader fetches the catalog once and shares it across requests.
// Concurrent loads are collapsed into a single source call.
type Loader struct {
	source Source
	cfg    LoaderConfig
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time

	mu        sync.RWMutex
	current   *Result
	expiresAt time.Time
}

func NewLoader(source Source, cfg LoaderConfig) *Loader {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source: source,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Peek returns the last known result without touching the network.
func (l *Loader) Peek() Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return Result{State: StateLoading}
	}
	return *l.current
}

// Load returns the cached catalog while it is fresh, otherwise fetches it.
func (l *Loader) Load(ctx context.Context) Result {
	l.mu.RLock()
	if l.current != nil && l.now().Before(l.expiresAt) {
		res := *l.current
		l.mu.RUnlock()
		return res
	}
	l.mu.RUnlock()

	// The fetch is shared by every waiter, so it must not die with the first caller's request.
	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("catalog", func() (any, error) {
		return l.fetch(fetchCtx), nil
	})

	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		res := l.Peek()
		if res.State != StateReady {
			return Result{State: StateLoading, Err: context.Cause(ctx)}
		}
		return res
	}
}

func (l *Loader) fetch(ctx context.Context) Result {
	records, err := l.source.All(ctx)
	if err == nil {
		countries := Normalize(records)
		if len(countries) > 0 {
			res := Result{State: StateReady, Countries: countries, LoadedAt: l.now()}
			l.store(res, l.cfg.TTL)
			l.logger.Info("country catalog loaded", "count", len(countries))
			return res
		}
		err = ErrEmptyCatalog
	}
	l.logger.Warn("country catalog load failed", "error", err)

	if l.cfg.FallbackCSV != "" {
		countries, ferr := ReadFallbackCSV(l.cfg.FallbackCSV)
		if ferr == nil && len(countries) > 0 {
			res := Result{State: StateReady, Countries: countries, Fallback: true, Err: err, LoadedAt: l.now()}
			l.store(res, l.cfg.RetryAfter)
			l.logger.Info("serving fallback country catalog", "path", l.cfg.FallbackCSV, "count", len(countries))
			return res
		}
		if ferr == nil {
			ferr = ErrEmptyCatalog
		}
		l.logger.Error("fallback country catalog unusable", "path", l.cfg.FallbackCSV, "error", ferr)
	}

	// Keep serving a previously fetched catalog rather than breaking the page.
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil && l.current.State == StateReady {
		l.expiresAt = l.now().Add(l.cfg.RetryAfter)
		return *l.current
	}
	res := Result{State: StateError, Err: err, LoadedAt: l.now()}
	l.current = &res
	l.expiresAt = l.now().Add(l.cfg.RetryAfter)
	return res
}

func (l *Loader) store(res Result, ttl time.Duration) {
	l.mu.Lock()
	l.current = &res
	l.expiresAt = l.now().Add(ttl)
	l.mu.Unlock()
}
