package service

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitshare/internal/storage"
)

var (
	// ErrNotFound indicates a referenced group or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller failed an authorization predicate,
	// e.g. a non-creator attempting to delete a group. Surfaced distinctly
	// from ErrNotFound.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyMember indicates the user is already in the group.
	ErrAlreadyMember = errors.New("user is already a member")

	// ErrAlreadyInvited indicates the email already has a pending invite.
	ErrAlreadyInvited = errors.New("user is already invited")
)

// ValidationError reports malformed input with field-level detail.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// errorsIsNotFound reports whether err stems from a missing store record.
func errorsIsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
