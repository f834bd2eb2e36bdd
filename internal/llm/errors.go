package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a completion failed
type Kind int

const (
	// KindUnreachable means the endpoint could not be connected to
	KindUnreachable Kind = iota + 1
	// KindTimeout means the call did not finish before its deadline
	KindTimeout
	// KindBadStatus means the endpoint answered with a non-200 status
	KindBadStatus
	// KindMalformedResponse means the reply could not be parsed or lacked the text
	KindMalformedResponse
	// KindInvalidRequest means the request was rejected before any call was made
	KindInvalidRequest
)

// String returns the kind as used in logs, metrics and API responses
func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindBadStatus:
		return "bad_status"
	case KindMalformedResponse:
		return "malformed_response"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every provider
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int // set for KindBadStatus
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	var msg string
	if e.Kind == KindBadStatus {
		msg = fmt.Sprintf("status %d", e.StatusCode)
	} else {
		msg = e.Kind.String()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the description of the underlying error
func (e *Error) Cause() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Canceled reports whether the call was abandoned because its caller went away
func (e *Error) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// NewInvalidRequestError wraps a validation failure that happened before any call
func NewInvalidRequestError(err error) *Error {
	return &Error{Kind: KindInvalidRequest, Err: err}
}

// AsError extracts the *Error from err, if any
func AsError(err error) (*Error, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}

// classifyTransportError maps an error from the HTTP round trip to a Kind
func classifyTransportError(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Provider: provider, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Provider: provider, Err: err}
	}

	return &Error{Kind: KindUnreachable, Provider: provider, Err: err}
}
