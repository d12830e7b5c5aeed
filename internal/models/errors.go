// ABOUTME: Error taxonomy shared by the composition engine and its callers.
// ABOUTME: Validation, state, persistence, and not-found errors with errors.As helpers.
package models

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes engine errors.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindState       ErrorKind = "state"
	KindPersistence ErrorKind = "persistence"
	KindNotFound    ErrorKind = "not_found"
)

// ValidationError is returned before any mutation when input is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Kind returns KindValidation.
func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// StateError is returned when a command's preconditions are not met.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// Kind returns KindState.
func (e *StateError) Kind() ErrorKind { return KindState }

// PersistenceError wraps a gateway rejection. Error returns the gateway's
// message unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence failed"
	}
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Kind returns KindPersistence.
func (e *PersistenceError) Kind() ErrorKind { return KindPersistence }

// NotFoundError is returned when a required record does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s %s", e.Entity, e.ID)
}

// Kind returns KindNotFound.
func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsState reports whether err is or wraps a *StateError.
func IsState(err error) bool {
	var e *StateError
	return errors.As(err, &e)
}

// IsPersistence reports whether err is or wraps a *PersistenceError.
func IsPersistence(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// KindOf returns the taxonomy kind of err, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
