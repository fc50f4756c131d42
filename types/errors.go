package types

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorFailure marks a failed or malformed call to an external collaborator.
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrSchemaViolation     = fmt.Errorf("%w: schema violation", ErrCollaboratorFailure)

	ErrUnsupportedInput = errors.New("unsupported input")
	ErrTurnInProgress   = errors.New("a previous turn is still in progress")
)
