package queueapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies infrastructure failures. Business rejections are never
// errors; they come back as an Envelope with Success=false.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindConnectionRefused Kind = "connection_refused"
	KindCanceled          Kind = "canceled"
	KindNetwork           Kind = "network"
	KindHTTPStatus        Kind = "http_status"
	KindDecode            Kind = "decode"
)

// Error is returned for every transport or protocol failure.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("queueapi %s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("queueapi %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown to customers and officers. It never leaks
// transport details.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "The queue server did not respond in time. Please try again."
	case KindConnectionRefused, KindNetwork:
		return "The queue server is unavailable right now. Please try again shortly."
	case KindCanceled:
		return "The request was cancelled."
	case KindHTTPStatus:
		return "The queue server returned an error. Please try again."
	default:
		return "The queue server sent an unexpected response. Please try again."
	}
}

// UserMessage returns a display message for any error returned by the client.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "The queue server is unavailable right now. Please try again shortly."
}

// IsKind reports whether err is a client Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func classify(op string, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Kind: KindConnectionRefused, Op: op, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	default:
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
}
