package siteclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Error is a failed API call. Kind is one of sitecontent.KindTransport,
// KindValidation, KindNotFound or KindServer.
type Error struct {
	Kind    sitecontent.ErrorKind
	Status  int // zero for transport failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a client error, or KindServer for anything
// else non-nil.
func KindOf(err error) sitecontent.ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return sitecontent.KindServer
}

// kindForStatus classifies an HTTP status.
func kindForStatus(status int) sitecontent.ErrorKind {
	switch {
	case status == http.StatusNotFound:
		return sitecontent.KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return sitecontent.KindValidation
	}
	return sitecontent.KindServer
}

func transportError(err error) *Error {
	return &Error{Kind: sitecontent.KindTransport, Message: err.Error(), Err: err}
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == sitecontent.KindTransport || e.Kind == sitecontent.KindServer
}
