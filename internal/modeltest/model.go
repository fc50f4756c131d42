// Package modeltest provides a scripted ToolCallingChatModel for tests.
package modeltest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var _ model.ToolCallingChatModel = (*Model)(nil)

// Reply is one scripted model answer. When Err is set it is returned instead.
type Reply struct {
	ToolName  string
	Arguments string
	Content   string
	Err       error
}

// Model replays Replies in order and repeats the last one once exhausted.
type Model struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
}

func New(replies ...Reply) *Model {
	return &Model{replies: replies}
}

// ToolCall is a shortcut for a reply that calls name with args.
func ToolCall(name, args string) Reply {
	return Reply{ToolName: name, Arguments: args}
}

func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput returns the messages of the most recent call.
func (m *Model) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func (m *Model) next(input []*schema.Message) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
	if len(m.replies) == 0 {
		return Reply{}, errors.New("modeltest: no scripted reply")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx], nil
}

func (m *Model) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	reply, err := m.next(input)
	if err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	msg := schema.AssistantMessage(reply.Content, nil)
	if reply.ToolName != "" {
		msg.ToolCalls = []schema.ToolCall{{
			ID: "call_0",
			Function: schema.FunctionCall{
				Name:      reply.ToolName,
				Arguments: reply.Arguments,
			},
		}}
	}
	return msg, nil
}

func (m *Model) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}
