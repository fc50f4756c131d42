package server

import "github.com/tbxark/homi/types"

const (
	frameUserMessage = "user_message"
	frameVoice       = "voice"
	frameRestart     = "restart"

	frameAssistant = "assistant"
	frameError     = "error"
)

// wsIncoming is a client frame on /ws.
type wsIncoming struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// wsOutgoing is a server frame on /ws.
type wsOutgoing struct {
	Type         string                  `json:"type"`
	Conversation string                  `json:"conversation,omitempty"`
	Message      string                  `json:"message,omitempty"`
	Suggestions  []string                `json:"suggestions,omitempty"`
	Phase        types.Phase             `json:"phase,omitempty"`
	Field        types.Field             `json:"field,omitempty"`
	Request      *types.CompletedRequest `json:"request,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RequestListResponse struct {
	UserID   string                    `json:"user_id"`
	Requests []*types.CompletedRequest `json:"requests"`
}

type UpdateStatusRequest struct {
	Status types.RequestStatus `json:"status"`
}
