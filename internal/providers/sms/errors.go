package sms

import (
	"errors"
	"fmt"
)

type ErrorCategory string

const (
	// CategoryAuth invalidates the cached token and forces a fresh
	// login on the next attempt.
	CategoryAuth ErrorCategory = "auth"
	// CategoryTransient covers timeouts, 5xx and rate limiting. Safe to
	// retry with backoff.
	CategoryTransient ErrorCategory = "transient"
	// CategoryPermanent covers rejected recipients and suspended
	// accounts. Never retried.
	CategoryPermanent ErrorCategory = "permanent"
)

type ProviderError struct {
	Category ErrorCategory
	Op       string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sms %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("sms %s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func authError(op, message string, err error) *ProviderError {
	return &ProviderError{Category: CategoryAuth, Op: op, Message: message, Err: err}
}

func transientError(op, message string, err error) *ProviderError {
	return &ProviderError{Category: CategoryTransient, Op: op, Message: message, Err: err}
}

func permanentError(op, message string, err error) *ProviderError {
	return &ProviderError{Category: CategoryPermanent, Op: op, Message: message, Err: err}
}

func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Category == CategoryAuth
}

func IsTransientError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Category == CategoryTransient
}

func IsPermanentError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Category == CategoryPermanent
}
