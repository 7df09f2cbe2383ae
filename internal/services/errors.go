package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrBackendFunctionFailed marks a primary-path (atomic create) failure;
	// the fallback path is attempted before it is ever surfaced terminally.
	ErrBackendFunctionFailed = errors.New("organization provisioning function failed")

	// ErrBackendWriteFailed marks a fallback-path failure, terminal for the
	// attempt but retryable by the user.
	ErrBackendWriteFailed = errors.New("organization provisioning write failed")

	ErrNoProfile      = errors.New("profile not found")
	ErrNoOrganization = errors.New("organization not found")

	ErrConfigWriteFailed = errors.New("form configuration write failed")
	ErrInvalidSchema     = errors.New("invalid form schema")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrClientNotFound = errors.New("client not found")
	ErrBucketNotFound = errors.New("funding bucket not found")
	ErrBucketExceeded = errors.New("drawdown exceeds bucket limit")
)

// FieldError carries the offending field for inline display; it unwraps to
// a sentinel so callers can branch with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func missingField(field string) error {
	return &FieldError{Field: field, Err: ErrMissingRequiredField}
}
