package site

import (
	"context"
	"sync"

	"github.com/tendant/simple-site/pkg/query"
)

// Phase is what a section shows.
type Phase string

const (
	// PhaseSkeleton is shown while the section's query is idle or loading.
	PhaseSkeleton Phase = "skeleton"
	// PhaseRetry is shown when the query failed.
	PhaseRetry Phase = "retry"
	PhaseReady Phase = "ready"
)

// View is a section's render input.
type View[T any] struct {
	Phase Phase
	Data  T
	Err   error
}

// Section binds one query to a piece of the page.
type Section[T any] struct {
	name  string
	cache *query.Client
	key   query.Key
	load  func(ctx context.Context) (T, error)

	mu    sync.Mutex
	state query.State
	sub   *query.Subscription
}

func NewSection[T any](name string, cache *query.Client, key query.Key, load func(ctx context.Context) (T, error)) *Section[T] {
	return &Section[T]{name: name, cache: cache, key: key, load: load}
}

func (s *Section[T]) Name() string {
	return s.name
}

// Mount subscribes to the query and loads it. The returned error is the
// load failure, if any; View reports it as PhaseRetry.
func (s *Section[T]) Mount(ctx context.Context) error {
	sub := s.cache.Subscribe(s.key, func(st query.State) {
		s.mu.Lock()
		s.state = st
		s.mu.Unlock()
	})
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	_, err := s.load(ctx)
	return err
}

// Unmount stops following the query. The last view is kept.
func (s *Section[T]) Unmount() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (s *Section[T]) View() View[T] {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	switch st.Status {
	case query.StatusSuccess:
		v, _ := query.Data[T](st)
		return View[T]{Phase: PhaseReady, Data: v}
	case query.StatusError:
		return View[T]{Phase: PhaseRetry, Err: st.Err}
	}
	return View[T]{Phase: PhaseSkeleton}
}
