package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTransition is returned when the policy denies a status/role/action combination
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidPayload is returned when a transition payload is missing or malformed
	ErrInvalidPayload = errors.New("invalid transition payload")

	// ErrTemporalViolation is returned when a transition happens at a forbidden time
	ErrTemporalViolation = errors.New("temporal violation")

	// ErrConcurrentModification is returned when the stored version changed since it was read
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrUnknownLegacyStatus is recorded when a status string is neither canonical nor mapped
	ErrUnknownLegacyStatus = errors.New("unknown legacy status")

	// ErrPersistenceUnavailable is returned when the persistence collaborator fails or times out
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotFound is returned when a service request does not exist
	ErrNotFound = errors.New("service request not found")

	// ErrInvalidPolicy is returned when a built policy breaks terminal closure or leaves orphan states
	ErrInvalidPolicy = errors.New("invalid transition policy")
)

// InvalidTransitionError carries the attempted transition and everything the
// policy would have allowed instead.
type InvalidTransitionError struct {
	Current Status
	Role    Role
	Action  Action
	Reason  string
	Allowed []Permission
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, p := range e.Allowed {
		allowed = append(allowed, fmt.Sprintf("%s->%s", p.Action, p.Target))
	}
	msg := fmt.Sprintf("%s: %s cannot %s from %s (allowed: [%s])",
		ErrInvalidTransition, e.Role, e.Action, e.Current, strings.Join(allowed, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PayloadError names the offending payload field
type PayloadError struct {
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidPayload, e.Field, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return ErrInvalidPayload
}

// NewPayloadError creates a PayloadError
func NewPayloadError(field, reason string) error {
	return &PayloadError{Field: field, Reason: reason}
}

// TemporalError reports a transition attempted before its earliest allowed time
type TemporalError struct {
	Action    Action
	Now       time.Time
	NotBefore time.Time
}

func (e *TemporalError) Error() string {
	return fmt.Sprintf("%s: %s at %s is before %s",
		ErrTemporalViolation, e.Action, e.Now.Format(time.RFC3339), e.NotBefore.Format(time.RFC3339))
}

func (e *TemporalError) Unwrap() error {
	return ErrTemporalViolation
}

// UnknownLegacyStatusError records the raw input that triggered the migration fallback
type UnknownLegacyStatusError struct {
	Raw      string
	Fallback Status
}

func (e *UnknownLegacyStatusError) Error() string {
	return fmt.Sprintf("%s: %q folded to %s", ErrUnknownLegacyStatus, e.Raw, e.Fallback)
}

func (e *UnknownLegacyStatusError) Unwrap() error {
	return ErrUnknownLegacyStatus
}

// IsRetryable reports whether the caller may retry after re-reading the request
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrPersistenceUnavailable)
}
