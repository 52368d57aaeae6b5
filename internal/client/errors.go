package client

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized matches any 401 answer. The session is cleared when it happens.
	ErrUnauthorized = errors.New("client: unauthorized")
	// ErrTransport wraps failures that never produced an HTTP answer.
	ErrTransport = errors.New("client: transport failure")
	// ErrNoSession is returned when no stored token exists.
	ErrNoSession = errors.New("client: not logged in")
)

// APIError is a non-2xx answer. Message carries the problem detail verbatim and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: http status %d", e.Status)
	}
	return fmt.Sprintf("client: http status %d: %s", e.Status, e.Message)
}

// Is reports a 401 as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}

// UserMessage turns err into the text shown to the operator. Backend messages are surfaced
// verbatim; answers without one and transport failures fall back to fallback. Local errors,
// such as draft validation, speak for themselves.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fallback
	}
	return err.Error()
}
