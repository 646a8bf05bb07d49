package psn

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome classifies an opaque upstream failure into the fixed set the HTTP
// layer maps onto status codes.
type Outcome int

const (
	// OutcomeUpstream covers every unclassified upstream failure.
	OutcomeUpstream Outcome = iota
	// OutcomeNotFound means the identity could not be resolved.
	OutcomeNotFound
	// OutcomePrivacyRestricted means the profile exists but its data is hidden.
	OutcomePrivacyRestricted
	// OutcomeAuthFailure means a credential exchange or refresh failed.
	OutcomeAuthFailure
)

// Error pairs a classified outcome with a human-readable message.
type Error struct {
	Outcome Outcome
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// NotFoundf builds a classified not-found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Outcome: OutcomeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AuthFailure wraps a credential exchange failure. Already-classified auth
// errors pass through unchanged.
func AuthFailure(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) && classified.Outcome == OutcomeAuthFailure {
		return classified
	}
	return &Error{
		Outcome: OutcomeAuthFailure,
		Message: "Authentication failed. Please check your NPSSO token.",
		cause:   err,
	}
}

// Classify maps an opaque upstream error onto the fixed outcome set. The
// upstream API reports failures as free text, so this is string matching by
// necessity; it lives here so the matching rules have exactly one home.
func Classify(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no social metadata"):
		return &Error{Outcome: OutcomeNotFound, Message: err.Error(), cause: err}
	case strings.Contains(msg, "undefined"), strings.Contains(msg, "hidden"):
		return &Error{Outcome: OutcomePrivacyRestricted, Message: err.Error(), cause: err}
	default:
		return &Error{Outcome: OutcomeUpstream, Message: err.Error(), cause: err}
	}
}

// OutcomeOf extracts the outcome from a classified error chain, defaulting to
// OutcomeUpstream for anything unclassified.
func OutcomeOf(err error) Outcome {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Outcome
	}
	return OutcomeUpstream
}
