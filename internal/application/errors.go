package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned by repositories when a unique key is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrDuplicateEmail is returned when registering an email that is already in use.
	ErrDuplicateEmail = errors.New("application: email already registered")
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session was explicitly logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrStoreUnavailable is returned when the backing store fails or times out.
	ErrStoreUnavailable = errors.New("application: store unavailable")
	// ErrAuthProvider is returned when the credential provider fails or times out.
	ErrAuthProvider = errors.New("application: auth provider error")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// storeError folds an unexpected repository failure into ErrStoreUnavailable.
// Errors that already belong to the taxonomy pass through unchanged.
func storeError(err error) error {
	if err == nil || isTaxonomyError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// providerError folds an unexpected credential provider failure into ErrAuthProvider.
func providerError(err error) error {
	if err == nil || isTaxonomyError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrAuthProvider, err)
}

func isTaxonomyError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	for _, sentinel := range []error{
		ErrUnauthorized,
		ErrNotFound,
		ErrAlreadyExists,
		ErrDuplicateEmail,
		ErrInvalidCredentials,
		ErrSessionExpired,
		ErrSessionRevoked,
		ErrStoreUnavailable,
		ErrAuthProvider,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
