package chat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimited marks an upstream throttling failure. Generators wrap it.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrEmptyInput is returned by Session.Submit for blank input.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy is returned by Session.Submit while a request is in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotConfigured is returned when no generator is available.
	ErrNotConfigured = errors.New("inference is not configured")
)

// User-facing messages for terminal inference failures.
const (
	RateLimitApology = "I apologize, but I've reached my rate limit with the inference API. Please try again in a moment."
	GenericApology   = "I apologize, but I am currently unable to process your request. Please try again later."
)

// InferenceError is returned once the inference client gives up.
type InferenceError struct {
	Attempts    int
	RateLimited bool
	Err         error
}

func (e *InferenceError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("inference rate limited after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("inference failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Apology returns the message shown to the visitor for this failure.
func (e *InferenceError) Apology() string {
	if e.RateLimited {
		return RateLimitApology
	}
	return GenericApology
}

// IsRateLimitError reports whether err looks like upstream throttling.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}
