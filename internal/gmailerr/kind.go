// Package gmailerr defines the closed error taxonomy surfaced by the engine
// to tool callers, and classifies transport-level errors into it.
package gmailerr

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Kind is one of the surface error kinds from the design's error taxonomy.
// It intentionally excludes raw transport codes, callers switch on Kind,
// never on HTTP status.
type Kind int

const (
	// Unknown is the zero value; never returned by Classify for a non-nil err.
	Unknown Kind = iota
	InvalidInput
	ToolNotFound
	ToolNotAvailable
	AuthError
	NotFound
	RateLimited
	TransientBackend
	Cancelled
	AmbiguousDeletion
	RuleConflict
	PolicyDenied
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case ToolNotFound:
		return "ToolNotFound"
	case ToolNotAvailable:
		return "ToolNotAvailable"
	case AuthError:
		return "AuthError"
	case NotFound:
		return "NotFound"
	case RateLimited:
		return "RateLimited"
	case TransientBackend:
		return "TransientBackend"
	case Cancelled:
		return "Cancelled"
	case AmbiguousDeletion:
		return "AmbiguousDeletion"
	case RuleConflict:
		return "RuleConflict"
	case PolicyDenied:
		return "PolicyDenied"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is an error value carrying a Kind alongside a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a *Error of the given kind wrapping err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind of err, or Unknown if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Classify maps a transport-level error (typically *googleapi.Error) into
// the surface taxonomy. Retry exhaustion is signalled by the caller wrapping
// the final attempt's error through Classify, same as a first attempt would.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			for _, item := range gerr.Errors {
				if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
					return RateLimited
				}
			}
			return AuthError
		case 404:
			return NotFound
		case 429:
			return RateLimited
		case 500, 502, 503, 504:
			return TransientBackend
		case 501:
			return Internal
		default:
			if gerr.Code >= 400 && gerr.Code < 500 {
				return InvalidInput
			}
			return Internal
		}
	}

	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}

	return Internal
}

// Retryable reports whether an error of the given kind should be retried
// internally by the Gmail Client: RateLimited and TransientBackend are
// recovered locally, everything else is terminal.
func Retryable(kind Kind) bool {
	return kind == RateLimited || kind == TransientBackend
}
