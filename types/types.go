package types

import "time"

type Phase string

const (
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseAsking        Phase = "asking"
	PhaseComplete      Phase = "complete"
)

// Field names a slot the dialogue can ask for.
type Field string

const (
	FieldLocation Field = "location"
	FieldBudget   Field = "budget"
	FieldTimeline Field = "timeline"
	FieldSpecific Field = "specific"
)

// Pointer returns the JSON pointer of the slot inside ScopingState.
func (f Field) Pointer() string {
	switch f {
	case FieldSpecific:
		return "/task_specific"
	case "":
		return ""
	default:
		return "/" + string(f)
	}
}

type FieldInfo struct {
	Field       Field  `json:"field"`
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ScopingState holds the slots collected for one conversation. Empty means unset.
type ScopingState struct {
	TaskType     string `json:"task_type,omitempty" jsonschema:"description=Coarse service category derived from the first message"`
	Location     string `json:"location,omitempty" jsonschema:"description=Where the service is needed"`
	Budget       string `json:"budget,omitempty" jsonschema:"description=Budget as the user wrote it, e.g. $50-100"`
	Timeline     string `json:"timeline,omitempty" jsonschema:"description=When the service is needed"`
	RawDetails   string `json:"raw_details,omitempty" jsonschema:"description=The first user message verbatim"`
	TaskSpecific string `json:"task_specific,omitempty" jsonschema:"description=Answer to the category specific follow-up question"`
}

// Get returns the value stored for field.
func (s *ScopingState) Get(field Field) string {
	if s == nil {
		return ""
	}
	switch field {
	case FieldLocation:
		return s.Location
	case FieldBudget:
		return s.Budget
	case FieldTimeline:
		return s.Timeline
	case FieldSpecific:
		return s.TaskSpecific
	default:
		return ""
	}
}

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusMatched   RequestStatus = "matched"
	StatusBooked    RequestStatus = "booked"
	StatusCancelled RequestStatus = "cancelled"
)

type CompletedRequest struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	RawInput       string        `json:"raw_input"`
	TaskType       string        `json:"task_type"`
	Location       string        `json:"location"`
	Budget         string        `json:"budget"`
	Timeline       string        `json:"timeline"`
	TaskSpecific   string        `json:"task_specific,omitempty"`
	Skills         []string      `json:"skills"`
	Duration       string        `json:"duration"`
	SuggestedPrice float64       `json:"suggested_price"`
	Description    string        `json:"description"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
