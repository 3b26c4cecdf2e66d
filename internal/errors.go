package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoggedIn is returned when a command needs a session and none is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// ValidationError represents input rejected before any network call
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// APIError represents a non-success response from the backend
type APIError struct {
	Op      string // e.g. "fetch chat history"
	Status  int
	Message string // backend message field, or the operation's fallback
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// TransportError represents a failure to reach the backend at all
type TransportError struct {
	Op     string
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthorizationError is raised by role gating
type AuthorizationError struct {
	Required []string
	Actual   string
}

func (e *AuthorizationError) Error() string {
	if e.Actual == "" {
		return "login required"
	}
	return fmt.Sprintf("role %s is not allowed (requires %s)", e.Actual, strings.Join(e.Required, " or "))
}

func (e *AuthorizationError) Unwrap() error {
	if e.Actual == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// StorageError represents errors accessing local state (session store, cache)
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "clear"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
