package dialogue

import (
	"context"

	"github.com/tbxark/homi/types"
)

// Prompt is the next question with its quick replies. Picking a suggestion is
// the same as typing it.
type Prompt struct {
	Field       types.Field `json:"field"`
	Question    string      `json:"question" jsonschema:"required,description=The question to ask the user"`
	Suggestions []string    `json:"suggestions"`
}

type Request struct {
	Field    types.Field
	TaskType string
	State    *types.ScopingState

	MissingFields []types.FieldInfo
	// LastQuestion and LastUserInput are the exchange that led here.
	LastQuestion  string
	LastUserInput string
}

// Generator returns the prompt for req.Field, or nil when the field has no
// question for the task type.
type Generator interface {
	GenerateQuestion(ctx context.Context, req *Request) (*Prompt, error)
}
