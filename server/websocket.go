package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/auth"
)

// handleWebSocket runs one conversation per connection. The conversation id
// comes from ?conversation= so a client can resume after a reconnect.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var user *auth.User
	if email := r.URL.Query().Get("user"); email != "" {
		u, err := auth.UserForEmail(email)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		user = u
	}
	conversation := r.URL.Query().Get("conversation")
	if conversation == "" {
		conversation = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := agent.WithStateKey(r.Context(), conversation)
	if user != nil {
		ctx = auth.WithUser(ctx, user)
	}
	slog.Info("WebSocket connected", "conversation", conversation)

	greeting, err := s.agent.Greeting(ctx)
	if err != nil {
		sendWSError(conn, err.Error())
		return
	}
	if err := sendWS(conn, assistantFrame(conversation, greeting)); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}
		var msg wsIncoming
		if err := sonic.Unmarshal(data, &msg); err != nil {
			sendWSError(conn, "invalid message format")
			continue
		}
		resp, err := s.dispatch(ctx, msg)
		if err != nil {
			sendWSError(conn, err.Error())
			continue
		}
		if err := sendWS(conn, assistantFrame(conversation, resp)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg wsIncoming) (*agent.Response, error) {
	switch msg.Type {
	case frameUserMessage:
		if strings.TrimSpace(msg.Content) == "" {
			return nil, errors.New("content is required")
		}
		return s.agent.Turn(ctx, msg.Content, agent.ModalityText)
	case frameVoice:
		return s.agent.Turn(ctx, msg.Content, agent.ModalityVoice)
	case frameRestart:
		if err := s.agent.Reset(ctx); err != nil {
			return nil, err
		}
		return s.agent.Greeting(ctx)
	default:
		return nil, errors.New("unknown message type: " + msg.Type)
	}
}

func assistantFrame(conversation string, resp *agent.Response) wsOutgoing {
	out := wsOutgoing{
		Type:         frameAssistant,
		Conversation: conversation,
		Message:      resp.Message,
		Suggestions:  resp.Suggestions,
	}
	if resp.State != nil {
		out.Phase = resp.State.Phase
		out.Field = resp.State.Asking
		out.Request = resp.State.Request
	}
	if resp.Err != nil {
		out.Error = resp.Err.Error()
	}
	return out
}

func sendWS(conn *websocket.Conn, frame wsOutgoing) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("WebSocket write error", "error", err)
		return err
	}
	return nil
}

func sendWSError(conn *websocket.Conn, message string) {
	_ = sendWS(conn, wsOutgoing{Type: frameError, Message: message})
}
