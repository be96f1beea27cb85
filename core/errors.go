package orchestration

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies session failures for reporting. Categories are
// stable wire values.
type ErrorCategory string

const (
	// ErrorCategoryConfiguration covers missing or invalid credentials.
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	// ErrorCategoryCollaborator covers timeouts, non-2xx responses and
	// malformed payloads from external collaborators.
	ErrorCategoryCollaborator ErrorCategory = "collaborator_failure"
	// ErrorCategoryProtocol covers client messages that violate the session
	// protocol.
	ErrorCategoryProtocol ErrorCategory = "protocol_violation"
	// ErrorCategoryResource covers local device failures. These are client
	// side and never cross the wire to the server.
	ErrorCategoryResource ErrorCategory = "resource"
)

var (
	ErrNotConfigured   = errors.New("capability not configured")
	ErrAlreadyStarted  = errors.New("orchestrator already started")
	ErrSessionClosed   = errors.New("session closed")
	ErrTurnQueueFull   = errors.New("turn queue full")
	ErrEmptyTranscript = errors.New("empty transcript")
)

// CapabilityError attributes a failure to one capability so it can be
// reported as a single error event without tearing the session down.
type CapabilityError struct {
	Category   ErrorCategory
	Capability Capability
	Err        error
}

func newCapabilityError(category ErrorCategory, capability Capability, err error) *CapabilityError {
	return &CapabilityError{Category: category, Capability: capability, Err: err}
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Capability, e.Category, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// asCapabilityError maps any worker error onto a reportable capability
// error, defaulting to a collaborator failure of the given capability.
func asCapabilityError(err error, fallback Capability) *CapabilityError {
	if err == nil {
		return nil
	}

	var capabilityErr *CapabilityError
	if errors.As(err, &capabilityErr) {
		return capabilityErr
	}

	return newCapabilityError(ErrorCategoryCollaborator, fallback, err)
}
