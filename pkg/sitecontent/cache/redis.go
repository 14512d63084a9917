package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// scanBatch is the SCAN COUNT hint used by DeletePrefix.
const scanBatch = 500

// Redis is a cache backed by a Redis server
type Redis struct {
	client redis.UniversalClient

	hits, misses, sets, deletes atomic.Int64
}

// NewRedis wraps an existing client
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}
	r.hits.Add(1)
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	r.sets.Add(1)
	return nil
}

// DeletePrefix walks the keyspace with SCAN and deletes matches in batches.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	iter := r.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()

	removed := 0
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	r.deletes.Add(int64(removed))
	return removed, nil
}

func (r *Redis) Stats(ctx context.Context) (sitecontent.CacheStats, error) {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return sitecontent.CacheStats{}, fmt.Errorf("failed to read cache size: %w", err)
	}
	stats := sitecontent.CacheStats{
		Backend: "redis",
		Entries: size,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Sets:    r.sets.Load(),
		Deletes: r.deletes.Load(),
	}
	stats.HitRate = hitRate(stats.Hits, stats.Misses)

	info, err := r.client.Info(ctx, "stats", "memory").Result()
	if err == nil {
		fields := parseInfo(info)
		stats.Details = map[string]string{}
		for _, k := range []string{"keyspace_hits", "keyspace_misses", "used_memory_human"} {
			if v, ok := fields[k]; ok {
				stats.Details[k] = v
			}
		}
		if h, err := strconv.ParseInt(fields["keyspace_hits"], 10, 64); err == nil {
			if m, err := strconv.ParseInt(fields["keyspace_misses"], 10, 64); err == nil {
				stats.Details["server_hit_rate"] = strconv.FormatFloat(hitRate(h, m), 'f', 2, 64)
			}
		}
	}
	return stats, nil
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// parseInfo reads "key:value" lines of an INFO reply.
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			fields[k] = v
		}
	}
	return fields
}
