package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found upstream.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrNetwork indicates a transport-level failure: the core API never answered.
type ErrNetwork struct {
	Resource string
	Op       string
	Err      error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error [%s/%s]: %v", e.Resource, e.Op, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates the core API rejected the bearer token (401).
// Receiving it from any call must clear the session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a locally rejected draft (bad or missing input).
// No upstream call is made when this is returned.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUpstream indicates a non-2xx response from the core API. Detail carries
// the server-supplied message when one was present; it is surfaced to the
// operator verbatim.
type ErrUpstream struct {
	Resource string
	Op       string
	Status   int
	Detail   string
}

func (e *ErrUpstream) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Resource, e.Op, e.Status)
}

// ErrFormat indicates a list response that matched neither expected shape
// (bare array or named-sequence wrapper). Callers treat the list as empty
// and surface a warning.
type ErrFormat struct {
	Resource string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("unexpected response shape for %s list", e.Resource)
}

// ErrCircuitOpen indicates the circuit breaker to the core API is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrForbidden indicates the user's role does not permit the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrWorkflow indicates an import batch transition was requested from the
// wrong state (e.g. processing a batch that is not VALIDATED).
type ErrWorkflow struct {
	BatchID int
	Have    BatchStatus
	Want    BatchStatus
}

func (e *ErrWorkflow) Error() string {
	return fmt.Sprintf("batch %d is %s, must be %s", e.BatchID, e.Have, e.Want)
}
