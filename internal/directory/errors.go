package directory

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindDomain       Kind = "domain"
	KindSearch       Kind = "search"
	KindUnknown      Kind = "unknown"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound classifies as KindDomain.
	ErrNotFound = errors.New("not found")
)

// NetworkError means the backend could not be reached or did not answer in time.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error: %s: %v", e.Message, e.Err)
	}
	return "network error: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DomainError means the backend rejected the operation, e.g. an invalid role or a
// transition out of a terminal status.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string { return e.Message }

type SearchError struct {
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search failed: %s: %v", e.Message, e.Err)
	}
	return "search failed: " + e.Message
}

func (e *SearchError) Unwrap() error { return e.Err }

type UnknownError struct {
	Message string
	Err     error
}

func (e *UnknownError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *UnknownError) Unwrap() error { return e.Err }

func notFound(what string) error {
	return errors.Wrap(ErrNotFound, what)
}

func Domainf(format string, args ...interface{}) error {
	return &DomainError{Message: fmt.Sprintf(format, args...)}
}

// Classify maps any error from a Directory call onto the taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		netErr    *NetworkError
		domainErr *DomainError
		searchErr *SearchError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound), errors.As(err, &domainErr):
		return KindDomain
	case errors.As(err, &searchErr):
		return KindSearch
	case errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindNetwork
	}
	return KindUnknown
}

// Message renders err as the single line shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	switch Classify(err) {
	case KindUnauthorized:
		return "You are signed out. Sign in again to continue."
	case KindDomain:
		if errors.As(err, &domainErr) {
			return domainErr.Message
		}
	case KindNetwork:
		var netErr *NetworkError
		if errors.As(err, &netErr) && netErr.Message != "" {
			return "Network error: " + netErr.Message
		}
		return "Network error: the request did not complete"
	}
	return err.Error()
}
