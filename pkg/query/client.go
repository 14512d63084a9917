// Package query caches the results of remote reads. Identical in-flight
// reads are shared, results are served until their stale window passes or
// a mutation invalidates them, and failed reads are retried with
// exponential backoff.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by calls on a closed Client.
var ErrClosed = errors.New("query client closed")

// RetryPolicy shapes the backoff between attempts.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// MaxRetries bounds the retries of a read after its first attempt.
	MaxRetries uint64
	// MutationRetries bounds the retries of a mutation.
	MutationRetries uint64
}

// DefaultRetryPolicy waits 1s, 2s, 4s ... capped at 30s, and gives up
// after three retries.
var DefaultRetryPolicy = RetryPolicy{
	InitialInterval: time.Second,
	MaxInterval:     30 * time.Second,
	Multiplier:      2,
	MaxRetries:      3,
	MutationRetries: 1,
}

type entry struct {
	key   Key
	state State
	gen   uint64
	// dataGen is the generation the stored Data was fetched at.
	dataGen uint64
	// version orders the published states of the entry.
	version uint64
	subs    map[*Subscription]struct{}
}

// Client holds the query cache. Create one per process or per test with
// New and release it with Close.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now          func() time.Time
	staleTimes   map[string]time.Duration
	defaultStale time.Duration
	policy       RetryPolicy
	newTimer     func() backoff.Timer
	retryable    func(error) bool
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the time source used for stale windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithStaleTime sets the stale window of tag.
func WithStaleTime(tag string, d time.Duration) Option {
	return func(c *Client) {
		c.staleTimes[tag] = d
	}
}

// WithDefaultStaleTime sets the stale window of tags without their own.
func WithDefaultStaleTime(d time.Duration) Option {
	return func(c *Client) {
		c.defaultStale = d
	}
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTimer sets the timer factory used to wait between attempts.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(c *Client) {
		c.newTimer = newTimer
	}
}

// WithRetryable overrides which errors are retried.
func WithRetryable(fn func(error) bool) Option {
	return func(c *Client) {
		c.retryable = fn
	}
}

// WithLogger sets the logger for retries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a query client.
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries:    make(map[string]*entry),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
		staleTimes: make(map[string]time.Duration, len(DefaultStaleTimes)),
		policy:     DefaultRetryPolicy,
		newTimer:   func() backoff.Timer { return nil },
		retryable:  Retryable,
		logger:     slog.Default(),
	}
	for tag, d := range DefaultStaleTimes {
		c.staleTimes[tag] = d
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retryable retries every error except those reporting Retryable() false,
// and context errors.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Close cancels in-flight fetches, waits for them and drops every entry
// and subscription.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	for _, e := range c.entries {
		for s := range e.subs {
			s.detach()
		}
	}
	c.entries = map[string]*entry{}
	c.mu.Unlock()
}

// entryLocked returns the entry of key, creating it idle.
func (c *Client) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, subs: map[*Subscription]struct{}{}}
		c.entries[id] = e
	}
	return e
}

func (c *Client) staleTime(tag string) time.Duration {
	if d, ok := c.staleTimes[tag]; ok {
		return d
	}
	return c.defaultStale
}

func (c *Client) freshLocked(e *entry) bool {
	s := e.state
	if s.Status != StatusSuccess || s.Stale {
		return false
	}
	return c.now().Sub(s.UpdatedAt) < c.staleTime(e.key.Tag)
}

type delivery struct {
	st      State
	version uint64
	subs    []*Subscription
}

// publishLocked versions the current state of e and snapshots its
// subscribers for delivery outside the lock.
func publishLocked(e *entry) delivery {
	e.version++
	subs := make([]*Subscription, 0, len(e.subs))
	for s := range e.subs {
		subs = append(subs, s)
	}
	return delivery{st: e.state, version: e.version, subs: subs}
}

func (d delivery) send() {
	for _, s := range d.subs {
		s.deliver(d.st, d.version)
	}
}

// State returns the current state of key.
func (c *Client) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok {
		return e.state
	}
	return State{}
}

// Fetch returns the cached result of key while it is fresh and otherwise
// calls fn, retrying per the client's policy. Concurrent fetches of one key
// share a single call. When ctx ends the caller stops waiting but the
// shared call completes and fills the cache.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	id := key.String()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		data := e.state.Data
		c.mu.Unlock()
		if data == nil {
			return zero, nil
		}
		v, ok := data.(T)
		if !ok {
			return zero, fmt.Errorf("query %s holds %T, not %T", id, data, zero)
		}
		return v, nil
	}
	gen := e.gen
	c.mu.Unlock()

	ch := c.group.DoChan(id+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		return c.run(key, gen, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// run performs the shared call of key and records its outcome.
func (c *Client) run(key Key, gen uint64, fn func(ctx context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.wg.Add(1)
	defer c.wg.Done()
	e := c.entryLocked(key)
	var d delivery
	if gen >= e.dataGen {
		e.state.Status = StatusLoading
		e.state.Err = nil
		d = publishLocked(e)
	}
	c.mu.Unlock()
	d.send()

	attempts := 0
	v, err := c.retry(c.ctx, c.policy.MaxRetries, key.String(), func(ctx context.Context) (any, error) {
		attempts++
		return fn(ctx)
	})

	c.mu.Lock()
	e = c.entryLocked(key)
	if gen < e.dataGen {
		// a result from a newer generation already landed
		c.mu.Unlock()
		return v, err
	}
	e.state.Attempts = attempts
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = err
	} else {
		e.state.Status = StatusSuccess
		e.state.Data = v
		e.state.Err = nil
		e.state.UpdatedAt = c.now()
		e.state.Stale = e.gen != gen
		e.dataGen = gen
	}
	d = publishLocked(e)
	c.mu.Unlock()
	d.send()

	return v, err
}

func (c *Client) backOff(ctx context.Context, maxRetries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.policy.InitialInterval),
		backoff.WithMaxInterval(c.policy.MaxInterval),
		backoff.WithMultiplier(c.policy.Multiplier),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

func (c *Client) retry(ctx context.Context, maxRetries uint64, name string, op func(ctx context.Context) (any, error)) (any, error) {
	return backoff.RetryNotifyWithTimerAndData(func() (any, error) {
		v, err := op(ctx)
		if err != nil && !c.retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return v, err
	}, c.backOff(ctx, maxRetries), func(err error, wait time.Duration) {
		c.logger.Debug("query failed, retrying", "query", name, "wait", wait, "err", err)
	}, c.newTimer())
}

// Invalidate marks every entry under the given key prefixes stale. Fresh
// reads of them go to the network again, and fetches already in flight
// do not make them fresh.
func (c *Client) Invalidate(prefixes ...Key) {
	var out []delivery

	c.mu.Lock()
	for _, e := range c.entries {
		for _, p := range prefixes {
			if !e.key.HasPrefix(p) {
				continue
			}
			e.gen++
			if e.state.Status == StatusSuccess {
				e.state.Stale = true
			}
			out = append(out, publishLocked(e))
			break
		}
	}
	c.mu.Unlock()

	for _, d := range out {
		d.send()
	}
}

// Mutate runs fn, retrying at most the policy's MutationRetries times, and
// invalidates the given prefixes once it succeeds.
func Mutate[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error), invalidate ...Key) (T, error) {
	var zero T
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return zero, ErrClosed
	}

	v, err := c.retry(ctx, c.policy.MutationRetries, "mutation", func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	c.Invalidate(invalidate...)
	out, _ := v.(T)
	return out, nil
}

// Subscription receives the state changes of one key.
type Subscription struct {
	client *Client
	key    Key
	fn     func(State)

	mu     sync.Mutex
	closed bool
	seen   bool
	last   uint64
}

// Subscribe calls fn with the current state of key and again on every
// change until the subscription is closed.
func (c *Client) Subscribe(key Key, fn func(State)) *Subscription {
	s := &Subscription{client: c, key: key, fn: fn}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		s.closed = true
		return s
	}
	e := c.entryLocked(key)
	e.subs[s] = struct{}{}
	st, version := e.state, e.version
	c.mu.Unlock()

	s.deliver(st, version)
	return s
}

// deliver passes st on unless the subscriber already saw a newer version.
func (s *Subscription) deliver(st State, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.seen && version <= s.last) {
		return
	}
	s.seen, s.last = true, version
	s.fn(st)
}

func (s *Subscription) detach() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Close stops delivery. No call to the subscriber's function is running or
// will start once Close returns, so it must not be called from inside that
// function.
func (s *Subscription) Close() {
	s.detach()

	c := s.client
	c.mu.Lock()
	if e, ok := c.entries[s.key.String()]; ok {
		delete(e.subs, s)
	}
	c.mu.Unlock()
}
