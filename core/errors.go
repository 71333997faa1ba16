package core

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors forming the orchestration error taxonomy. Callers classify
// with errors.Is; wrapped detail is added at the call site with %w.
var (
	// ErrNotFound reports an unresolved session or agent id. Non-fatal.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID reports an agent create with an id already present in
	// the registry. The create is aborted, no state is mutated.
	ErrDuplicateID = errors.New("duplicate agent id")

	// ErrValidation reports a malformed agent or session config, raised
	// before any state mutation occurs.
	ErrValidation = errors.New("validation error")

	// ErrSessionEnded reports an operation against a tombstoned session.
	ErrSessionEnded = errors.New("session ended")

	// ErrInvalidMessageType reports an unknown bus message type. The bus
	// logs it and treats the message as a no-op.
	ErrInvalidMessageType = errors.New("invalid message type")
)

// CollaboratorError wraps a failure of the Responder collaborator. These are
// isolated per agent: logged, excluded from aggregate results and never
// propagated as session-fatal.
type CollaboratorError struct {
	Agent     string
	Transient bool
	Err       error
}

func (e *CollaboratorError) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("collaborator error for agent %s: %v", e.Agent, e.Err)
	}
	return fmt.Sprintf("collaborator error: %v", e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError wraps err, classifying deadline expiry and
// cancellation as transient.
func NewCollaboratorError(agent string, err error) *CollaboratorError {
	transient := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	return &CollaboratorError{Agent: agent, Transient: transient, Err: err}
}

// IsCollaboratorError reports whether err is (or wraps) a CollaboratorError.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
