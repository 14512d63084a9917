package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// BreakerSettings tunes the circuit breaker guarding the primary backend.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open
	HalfOpenRequests uint32
}

// DefaultBreakerSettings are used when NewFallback gets a zero value.
var DefaultBreakerSettings = BreakerSettings{
	ConsecutiveFailures: 3,
	OpenTimeout:         30 * time.Second,
	HalfOpenRequests:    1,
}

// Fallback serves from primary (Redis) and switches to secondary (memory)
// while primary is failing. Invalidations go to both. A prefix the primary
// failed to invalidate is replayed before the primary is used again, and
// until then reads and writes stay on the secondary.
type Fallback struct {
	primary   sitecontent.Cache
	secondary sitecontent.Cache
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]uint64
}

// NewFallback guards primary with a circuit breaker
func NewFallback(primary, secondary sitecontent.Cache, settings BreakerSettings, logger *slog.Logger) *Fallback {
	if settings == (BreakerSettings{}) {
		settings = DefaultBreakerSettings
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cache")

	f := &Fallback{primary: primary, secondary: secondary, logger: logger, pending: make(map[string]uint64)}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache-primary",
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return f
}

// State reports the breaker state.
func (f *Fallback) State() gobreaker.State {
	return f.breaker.State()
}

// Pending reports how many prefixes still await invalidation on the primary.
func (f *Fallback) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *Fallback) markPending(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.pending[prefix] = f.seq
}

// replay retries the primary invalidations that failed earlier and reports
// whether the primary is safe to use.
func (f *Fallback) replay(ctx context.Context) bool {
	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return true
	}
	todo := make(map[string]uint64, len(f.pending))
	for p, seq := range f.pending {
		todo[p] = seq
	}
	f.mu.Unlock()

	for prefix, seq := range todo {
		_, err := f.breaker.Execute(func() (interface{}, error) {
			return f.primary.DeletePrefix(ctx, prefix)
		})
		if err != nil {
			return false
		}
		f.mu.Lock()
		if f.pending[prefix] == seq {
			delete(f.pending, prefix)
		}
		f.mu.Unlock()
		f.logger.InfoContext(ctx, "replayed primary cache invalidation", "prefix", prefix)
	}
	return f.Pending() == 0
}

type getResult struct {
	value []byte
	ok    bool
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !f.replay(ctx) {
		return f.secondary.Get(ctx, key)
	}
	res, err := f.breaker.Execute(func() (interface{}, error) {
		v, ok, err := f.primary.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return getResult{value: v, ok: ok}, nil
	})
	if err != nil {
		f.logger.DebugContext(ctx, "primary cache get failed, using fallback", "key", key, "err", err)
		return f.secondary.Get(ctx, key)
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !f.replay(ctx) {
		return f.secondary.Set(ctx, key, value, ttl)
	}
	_, err := f.breaker.Execute(func() (interface{}, error) {
		return nil, f.primary.Set(ctx, key, value, ttl)
	})
	if err != nil {
		f.logger.DebugContext(ctx, "primary cache set failed, using fallback", "key", key, "err", err)
		return f.secondary.Set(ctx, key, value, ttl)
	}
	return nil
}

// DeletePrefix clears both backends so neither serves stale entries later.
func (f *Fallback) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed, err := f.secondary.DeletePrefix(ctx, prefix)
	if err != nil {
		return removed, err
	}
	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.primary.DeletePrefix(ctx, prefix)
	})
	if err != nil {
		f.markPending(prefix)
		f.logger.WarnContext(ctx, "primary cache invalidation failed, queued for replay", "prefix", prefix, "err", err)
		return removed, nil
	}
	f.mu.Lock()
	delete(f.pending, prefix)
	f.mu.Unlock()
	return removed + res.(int), nil
}

func (f *Fallback) Stats(ctx context.Context) (sitecontent.CacheStats, error) {
	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.primary.Stats(ctx)
	})
	if err != nil {
		stats, serr := f.secondary.Stats(ctx)
		if serr != nil {
			return stats, serr
		}
		stats.Backend = "memory (fallback)"
		if stats.Details == nil {
			stats.Details = map[string]string{}
		}
		stats.Details["primary_error"] = err.Error()
		stats.Details["breaker"] = f.breaker.State().String()
		return stats, nil
	}
	stats := res.(sitecontent.CacheStats)
	if stats.Details == nil {
		stats.Details = map[string]string{}
	}
	stats.Details["breaker"] = f.breaker.State().String()
	return stats, nil
}

func (f *Fallback) Close() error {
	perr := f.primary.Close()
	serr := f.secondary.Close()
	if perr != nil {
		return fmt.Errorf("close primary cache: %w", perr)
	}
	return serr
}
