package query

import (
	"errors"
	"time"
)

// Status is the phase of a query: idle, then loading, then success or error.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// State is a snapshot of one query.
type State struct {
	Status Status
	// Data is the last successful result; it survives later failures.
	Data any
	Err  error
	// UpdatedAt is when Data was fetched.
	UpdatedAt time.Time
	// Stale is set when the entry was invalidated after UpdatedAt.
	Stale bool
	// Attempts counts the calls made by the last fetch.
	Attempts int
}

// Data returns the state's result as T.
func Data[T any](s State) (T, bool) {
	v, ok := s.Data.(T)
	return v, ok
}

// FirstError returns the error of the first failed state, or nil.
func FirstError(states ...State) error {
	for _, s := range states {
		if s.Status == StatusError {
			if s.Err != nil {
				return s.Err
			}
			return errors.New("query failed")
		}
	}
	return nil
}
