package agent

import (
	"github.com/tbxark/homi/types"
)

type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// AnonymousUserID owns requests finalized without a user id.
const AnonymousUserID = "anonymous"

type State struct {
	Phase          types.Phase             `json:"phase" jsonschema:"enum=awaiting_input,enum=asking,enum=complete,description=The current phase of the scoping dialogue"`
	Asking         types.Field             `json:"asking,omitempty" jsonschema:"description=The field the latest question asked for"`
	Scoping        *types.ScopingState     `json:"scoping,omitempty" jsonschema:"description=Slots collected so far"`
	Request        *types.CompletedRequest `json:"request,omitempty"`
	LatestQuestion string                  `json:"latest_question,omitempty"`
	Suggestions    []string                `json:"suggestions,omitempty"`
}

// NewState returns a conversation waiting for its first message.
func NewState() *State {
	return &State{Phase: types.PhaseAwaitingInput}
}

// NewSeededState starts a conversation with slots already known, e.g. a saved
// location. Seeded slots are kept when the first message mentions them too.
// The task type and the raw details always come from the first message.
func NewSeededState(seed types.ScopingState) *State {
	seed.TaskType = ""
	seed.RawDetails = ""
	state := NewState()
	state.Scoping = &seed
	return state
}

type Request struct {
	State     *State   `json:"state"`
	UserInput string   `json:"user_input"`
	UserID    string   `json:"user_id,omitempty"`
	Modality  Modality `json:"modality,omitempty"`
}

// Response is the reply to one turn. Err carries a recoverable turn failure;
// the same text is in Metadata["error"].
type Response struct {
	Message     string            `json:"message,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
	State       *State            `json:"state,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Err         error             `json:"-"`
}

const (
	MetadataField     = "field"
	MetadataError     = "error"
	MetadataRequestID = "request_id"
	MetadataCommand   = "command"
)
