package patch

import (
	"context"

	"github.com/tbxark/homi/types"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op" jsonschema:"required,enum=add,enum=replace,description=RFC6902 operation"`
	Path  string `json:"path" jsonschema:"required,description=JSON pointer of the slot"`
	Value any    `json:"value,omitempty" jsonschema:"description=New slot value"`
}

type UpdateSlotsArgs struct {
	Ops []Operation `json:"ops" jsonschema:"required,description=Operations for slots the user explicitly provided"`
}

type Request struct {
	Question      string
	UserInput     string
	CurrentState  *types.ScopingState
	AllowedPaths  []string
	MissingFields []types.FieldInfo

	// FieldGuidance maps a slot pointer to the question and example answers
	// for it.
	FieldGuidance map[string]string
}

// Generator proposes slot writes for an utterance.
type Generator interface {
	GeneratePatch(ctx context.Context, req *Request) (*UpdateSlotsArgs, error)
}

// Set builds an add operation writing value at the slot pointer.
func Set(field types.Field, value string) Operation {
	return Operation{Op: OperationAdd, Path: field.Pointer(), Value: value}
}
