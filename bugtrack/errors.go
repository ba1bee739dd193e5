// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"errors"
	"fmt"
)

// Error taxonomy. NotFound and NoOpUpdate must stay distinguishable from
// storage failures so the HTTP layer can choose the right status code.
var (
	// ErrNotFound is returned when no canonical row matches the given identity.
	ErrNotFound = errors.New("not found")

	// ErrNoOpUpdate is returned when an update request supplies no fields to change.
	ErrNoOpUpdate = errors.New("no fields to update")
)

// ValidationError rejects a request before it reaches the repositories.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps any underlying data-access failure, including a failure
// partway through a write sequence. The core never downgrades these: the
// first failed statement aborts the remaining steps of the logical operation
// and the error surfaces to the caller as-is.
type StorageError struct {
	Statement string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Statement, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(stmt string, err error) *StorageError {
	return &StorageError{Statement: stmt, Err: err}
}
