package structured

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/types"
)

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Validator rejects decoded outputs that break the tool contract.
type Validator[TOutput any] func(output *TOutput) error

// Chain asks the model for exactly one call of a single tool and decodes its
// arguments into TOutput. Every failure after prompt building wraps
// types.ErrCollaboratorFailure.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
	Validator     Validator[TOutput]
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for tool %s", toolName)
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

// WithValidator returns the chain with v installed.
func (s *Chain[TInput, TOutput]) WithValidator(v Validator[TOutput]) *Chain[TInput, TOutput] {
	s.Validator = v
	return s
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: call model failed: %w", types.ErrCollaboratorFailure, err)
	}
	return s.decode(response)
}

func (s *Chain[TInput, TOutput]) Stream(ctx context.Context, input TInput) (*schema.StreamReader[*TOutput], error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	streamReader, err := s.ChatModel.Stream(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: call model failed: %w", types.ErrCollaboratorFailure, err)
	}

	return schema.StreamReaderWithConvert(streamReader, s.decode), nil
}

func (s *Chain[TInput, TOutput]) decode(msg *schema.Message) (*TOutput, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		content := ""
		if msg != nil {
			content = msg.Content
		}
		return nil, fmt.Errorf("%w: no ToolCall found in model response: %s", types.ErrSchemaViolation, content)
	}

	var result TOutput
	if err := sonic.UnmarshalString(msg.ToolCalls[0].Function.Arguments, &result); err != nil {
		return nil, fmt.Errorf("%w: parse ToolCall arguments failed: %w", types.ErrSchemaViolation, err)
	}
	if s.Validator != nil {
		if err := s.Validator(&result); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrSchemaViolation, err)
		}
	}
	return &result, nil
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}
