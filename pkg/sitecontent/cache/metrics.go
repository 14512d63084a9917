package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Instrumented counts cache outcomes per collection.
type Instrumented struct {
	next sitecontent.Cache

	requests      *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewInstrumented wraps next and registers its collectors with reg.
func NewInstrumented(next sitecontent.Cache, reg prometheus.Registerer) (*Instrumented, error) {
	c := &Instrumented{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by collection and result (hit, miss, error).",
		}, []string{"collection", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "site",
			Subsystem: "cache",
			Name:      "invalidated_keys_total",
			Help:      "Keys removed by collection invalidation.",
		}, []string{"collection"}),
	}
	for _, col := range []prometheus.Collector{c.requests, c.invalidations} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.next.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	c.requests.WithLabelValues(sitecontent.CollectionOfKey(key), result).Inc()
	return v, ok, err
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.next.Set(ctx, key, value, ttl)
}

func (c *Instrumented) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n, err := c.next.DeletePrefix(ctx, prefix)
	c.invalidations.WithLabelValues(sitecontent.CollectionOfKey(prefix)).Add(float64(n))
	return n, err
}

func (c *Instrumented) Stats(ctx context.Context) (sitecontent.CacheStats, error) {
	return c.next.Stats(ctx)
}

func (c *Instrumented) Close() error {
	return c.next.Close()
}
