package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/auth"
)

var _ adk.Agent = (*Agent)(nil)

// Message extra keys set on assistant messages emitted by Run.
const (
	ExtraSuggestions = "suggestions"
	ExtraPhase       = "phase"
	ExtraError       = "error"
)

// Agent hosts many conversations around one flow. The conversation is picked
// by the key set with WithStateKey and the user by auth.WithUser.
type Agent struct {
	name        string
	description string
	flow        *ScopingFlow
	states      StateReadWriter
	history     *HistoryStore
	turns       *TurnLock
}

type AgentOption func(*Agent)

func WithStateReadWriter(states StateReadWriter) AgentOption {
	return func(a *Agent) {
		a.states = states
	}
}

func WithHistoryStore(history *HistoryStore) AgentOption {
	return func(a *Agent) {
		a.history = history
	}
}

func NewAgent(name, description string, flow *ScopingFlow, opts ...AgentOption) *Agent {
	a := &Agent{
		name:        name,
		description: description,
		flow:        flow,
		states:      NewMemoryStateReadWriter(nil),
		history:     NewMemoryHistoryStore(KeepSystemLastNTrimmer{N: 50}),
		turns:       NewTurnLock(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

// Turn runs one turn of the conversation in ctx and saves its state. A turn
// arriving while the previous one is still running fails with
// types.ErrTurnInProgress.
func (a *Agent) Turn(ctx context.Context, input string, modality Modality) (*Response, error) {
	release, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := a.states.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	req := &Request{State: state, UserInput: input, Modality: modality}
	if user, ok := auth.UserFromContext(ctx); ok {
		req.UserID = user.ID
	}

	resp, err := a.flow.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("flow invoke failed: %w", err)
	}
	if err := a.states.Write(ctx, resp.State); err != nil {
		return nil, fmt.Errorf("failed to save conversation state: %w", err)
	}
	if modality != ModalityVoice && strings.TrimSpace(input) != "" {
		a.remember(ctx, schema.UserMessage(input), schema.AssistantMessage(resp.Message, nil))
	}
	return resp, nil
}

// Greeting returns the pending prompt of the conversation in ctx. Like Turn it
// fails with types.ErrTurnInProgress while a turn is running.
func (a *Agent) Greeting(ctx context.Context) (*Response, error) {
	release, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := a.states.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	resp := a.flow.Greeting(state)
	if err := a.states.Write(ctx, resp.State); err != nil {
		return nil, fmt.Errorf("failed to save conversation state: %w", err)
	}
	return resp, nil
}

// History returns the transcript of the conversation in ctx.
func (a *Agent) History(ctx context.Context) ([]*schema.Message, error) {
	return a.history.Load(ctx)
}

// Reset drops the state and transcript of the conversation in ctx. A running
// turn would write its state back afterwards, so Reset fails with
// types.ErrTurnInProgress until it ends.
func (a *Agent) Reset(ctx context.Context) error {
	release, err := a.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return errors.Join(a.states.Remove(ctx), a.history.Clear(ctx))
}

func (a *Agent) acquire(ctx context.Context) (func(), error) {
	return a.turns.Acquire(conversationKey(ctx))
}

func (a *Agent) remember(ctx context.Context, msgs ...*schema.Message) {
	if _, err := a.history.Append(ctx, msgs...); err != nil {
		slog.Warn("Failed to append transcript", "error", err)
	}
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("no messages in input"),
			})
			return
		}
		resp, err := a.Turn(ctx, input.Messages[len(input.Messages)-1].Content, ModalityText)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: err})
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     ResponseMessage(resp),
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}

// ResponseMessage renders a turn reply as an assistant message. Suggestions,
// phase and error travel in Extra.
func ResponseMessage(resp *Response) *schema.Message {
	msg := schema.AssistantMessage(resp.Message, nil)
	msg.Extra = map[string]any{
		ExtraSuggestions: resp.Suggestions,
	}
	if resp.State != nil {
		msg.Extra[ExtraPhase] = string(resp.State.Phase)
	}
	if resp.Err != nil {
		msg.Extra[ExtraError] = resp.Err.Error()
	}
	return msg
}
