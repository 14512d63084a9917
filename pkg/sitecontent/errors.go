package sitecontent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures. The set is closed.
type ErrorKind string

const (
	// KindTransport is a network or protocol failure between client and API.
	KindTransport ErrorKind = "transport"
	// KindValidation is a malformed or rejected request.
	KindValidation ErrorKind = "validation"
	// KindNotFound is a missing record.
	KindNotFound ErrorKind = "not_found"
	// KindServer is any other failure.
	KindServer ErrorKind = "server"
)

// Error types
var (
	// ErrNotFound indicates a record was not found
	ErrNotFound = errors.New("record not found")

	// ErrNoActiveRecord indicates a singleton collection has no active record
	ErrNoActiveRecord = errors.New("no active record")

	// ErrAlreadySubscribed indicates the email is already on the newsletter
	ErrAlreadySubscribed = errors.New("email already subscribed to newsletter")

	// ErrDuplicate indicates a unique constraint violation in the store
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidCollection indicates an unknown or unsupported collection
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrMediaNotFound indicates a media object was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrMediaDisabled indicates no media store is configured
	ErrMediaDisabled = errors.New("media storage is not configured")
)

// Error carries a classified failure of a content operation.
type Error struct {
	Kind       ErrorKind
	Op         string
	Collection Collection
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Collection != "" {
		fmt.Fprintf(&b, " %s", e.Collection)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Unclassified errors are server errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoActiveRecord), errors.Is(err, ErrMediaNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadySubscribed), errors.Is(err, ErrDuplicate), errors.Is(err, ErrInvalidCollection):
		return KindValidation
	}
	return KindServer
}

// MessageOf returns the human-readable part of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ValidationError reports a rejected request.
func ValidationError(op string, collection Collection, problems ...string) *Error {
	return &Error{
		Kind:       KindValidation,
		Op:         op,
		Collection: collection,
		Message:    strings.Join(problems, "; "),
	}
}

func notFound(op string, collection Collection, err error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Collection: collection, Err: err}
}

func serverError(op string, collection Collection, err error) *Error {
	return &Error{Kind: KindServer, Op: op, Collection: collection, Err: err}
}
