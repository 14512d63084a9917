package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantTimer fires at once and records every wait it was asked for.
type instantTimer struct {
	mu    *sync.Mutex
	waits *[]time.Duration
	ch    chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	*t.waits = append(*t.waits, d)
	t.mu.Unlock()
	t.ch <- time.Time{}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.ch
}

type timerLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (l *timerLog) factory() backoff.Timer {
	return &instantTimer{mu: &l.mu, waits: &l.waits, ch: make(chan time.Time, 1)}
}

func (l *timerLog) recorded() []time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Duration(nil), l.waits...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type retryableErr struct{ retry bool }

func (e retryableErr) Error() string   { return "remote failed" }
func (e retryableErr) Retryable() bool { return e.retry }

func newTestClient(t *testing.T, opts ...Option) (*Client, *timerLog, *fakeClock) {
	t.Helper()
	timers := &timerLog{}
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(append([]Option{WithTimer(timers.factory), WithClock(clock.Now)}, opts...)...)
	t.Cleanup(c.Close)
	return c, timers, clock
}

func TestFetchRetriesWithBackoff(t *testing.T) {
	c, timers, _ := newTestClient(t)
	key := NewKey(TagFeatures)

	calls := 0
	_, err := Fetch(context.Background(), c, key, func(ctx context.Context) ([]string, error) {
		calls++
		return nil, retryableErr{retry: true}
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, timers.recorded())

	st := c.State(key)
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, 4, st.Attempts)
	assert.Equal(t, err, FirstError(State{Status: StatusSuccess}, st))
}

func TestFetchRecoversAfterRetry(t *testing.T) {
	c, timers, _ := newTestClient(t)

	calls := 0
	got, err := Fetch(context.Background(), c, NewKey(TagHero), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "Atlas", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Atlas", got)
	assert.Len(t, timers.recorded(), 2)
}

func TestFetchDoesNotRetryPermanentErrors(t *testing.T) {
	c, timers, _ := newTestClient(t)

	calls := 0
	_, err := Fetch(context.Background(), c, NewKey(TagHero), func(ctx context.Context) (string, error) {
		calls++
		return "", retryableErr{retry: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, timers.recorded())
	assert.Equal(t, retryableErr{retry: false}, err)
}

func TestFetchBackoffIsCapped(t *testing.T) {
	policy := DefaultRetryPolicy
	policy.MaxRetries = 6
	c, timers, _ := newTestClient(t, WithRetryPolicy(policy))

	calls := 0
	_, err := Fetch(context.Background(), c, NewKey(TagTestimonials), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("503 service unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, 7, calls)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second,
	}, timers.recorded())
}

func TestFetchServesFreshResults(t *testing.T) {
	c, _, clock := newTestClient(t)
	key := NewKey(TagTestimonials, 6)

	var calls int32
	fetch := func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	v, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(29 * time.Minute)
	v, err = Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(2 * time.Minute)
	v, err = Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFetchUnlistedTagAlwaysRefetches(t *testing.T) {
	c, _, _ := newTestClient(t)
	key := NewKey("custom")

	var calls int32
	for i := 0; i < 3; i++ {
		_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (int, error) {
			return int(atomic.AddInt32(&calls, 1)), nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchSharesConcurrentCalls(t *testing.T) {
	c, _, _ := newTestClient(t)
	key := NewKey(TagNavigation, "main")

	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "nav", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool {
		return c.State(key).Status == StatusLoading
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "nav", r)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	_, err := Fetch(ctx, c, NewKey(TagFeatures, "sensors"), fetch)
	require.NoError(t, err)
	_, err = Fetch(ctx, c, NewKey(TagHero), fetch)
	require.NoError(t, err)

	c.Invalidate(NewKey(TagFeatures))
	assert.True(t, c.State(NewKey(TagFeatures, "sensors")).Stale)
	assert.False(t, c.State(NewKey(TagHero)).Stale)

	v, err := Fetch(ctx, c, NewKey(TagFeatures, "sensors"), fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = Fetch(ctx, c, NewKey(TagHero), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestInvalidateDuringFetchLeavesResultStale(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()
	key := NewKey(TagFooter)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
	}()

	<-started
	c.Invalidate(key)
	close(release)
	<-done

	assert.True(t, c.State(key).Stale)

	v, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.False(t, c.State(key).Stale)
}

func TestLateFetchDoesNotOverwriteNewerResult(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()
	key := NewKey(TagNavigation)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "old", v)
	}()

	<-started
	c.Invalidate(key)
	v, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	<-done

	st := c.State(key)
	assert.Equal(t, StatusSuccess, st.Status)
	assert.False(t, st.Stale)
	got, _ := Data[string](st)
	assert.Equal(t, "new", got)
}

func TestSubscriptionDropsOutOfOrderStates(t *testing.T) {
	c, _, _ := newTestClient(t)
	key := NewKey(TagHero)

	var seen []Status
	sub := c.Subscribe(key, func(s State) { seen = append(seen, s.Status) })
	defer sub.Close()

	sub.deliver(State{Status: StatusSuccess}, 3)
	sub.deliver(State{Status: StatusLoading}, 2)
	sub.deliver(State{Status: StatusSuccess}, 3)

	assert.Equal(t, []Status{StatusIdle, StatusSuccess}, seen)
}

func TestCallerCancellationStillFillsCache(t *testing.T) {
	c, _, _ := newTestClient(t)
	key := NewKey(TagSiteSettings)

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, key, func(ctx context.Context) (string, error) {
			<-release
			return "settings", nil
		})
		errc <- err
	}()

	require.Eventually(t, func() bool {
		return c.State(key).Status == StatusLoading
	}, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return c.State(key).Status == StatusSuccess
	}, time.Second, time.Millisecond)

	v, ok := Data[string](c.State(key))
	assert.True(t, ok)
	assert.Equal(t, "settings", v)
}

func TestSubscribeDeliversTransitions(t *testing.T) {
	c, _, _ := newTestClient(t)
	key := NewKey(TagProcessSteps)

	var mu sync.Mutex
	var seen []Status
	sub := c.Subscribe(key, func(s State) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (int, error) {
		return 4, nil
	})
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []Status{StatusIdle, StatusLoading, StatusSuccess}, seen)
	mu.Unlock()

	sub.Close()
	c.Invalidate(key)

	mu.Lock()
	assert.Len(t, seen, 3)
	mu.Unlock()
}

func TestDataKeepsLastResultAfterFailure(t *testing.T) {
	c, _, _ := newTestClient(t, WithRetryPolicy(RetryPolicy{
		InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1,
	}))
	key := NewKey(TagSearch, "atlas")

	_, err := Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
		return "first", nil
	})
	require.NoError(t, err)

	c.Invalidate(key)
	_, err = Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
		return "", errors.New("down")
	})
	require.Error(t, err)

	st := c.State(key)
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "first", st.Data)
	assert.Equal(t, 1, st.Attempts)
}

func TestMutateInvalidatesAndRetriesOnce(t *testing.T) {
	c, timers, _ := newTestClient(t)
	ctx := context.Background()

	_, err := Fetch(ctx, c, NewKey(TagFeatures), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	calls := 0
	id, err := Mutate(ctx, c, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("timeout")
		}
		return "feature-7", nil
	}, NewKey(TagFeatures))
	require.NoError(t, err)
	assert.Equal(t, "feature-7", id)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, timers.recorded())
	assert.True(t, c.State(NewKey(TagFeatures)).Stale)

	calls = 0
	_, err = Mutate(ctx, c, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestClosedClient(t *testing.T) {
	c := New()
	c.Close()
	c.Close()

	_, err := Fetch(context.Background(), c, NewKey(TagHero), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = Mutate(context.Background(), c, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestKeyPrefix(t *testing.T) {
	k := NewKey(TagTestimonials, 6)
	assert.Equal(t, "testimonials:6", k.String())
	assert.True(t, k.HasPrefix(NewKey(TagTestimonials)))
	assert.False(t, k.HasPrefix(NewKey(TagTestimonials, 3)))
	assert.False(t, NewKey(TagTestimonials).HasPrefix(k))
	assert.False(t, k.HasPrefix(NewKey(TagFeatures)))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("x")))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(retryableErr{retry: false}))
	assert.True(t, Retryable(retryableErr{retry: true}))
}
