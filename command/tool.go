package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/structured"
)

const (
	parseCommandToolName        = "parse_command_intent"
	parseCommandToolDescription = "Decide whether the user wants to throw away the current request and start a new one."
)

const DefaultParseCommandSystemPrompt = `You assist a service-booking assistant that scopes one request at a time.
Given the assistant's last question and the user's answer, decide the user's intent:
- restart: the user explicitly wants to drop the current request and start over (e.g. "start over", "forget it, new request", "that's wrong, let me begin again").
- none: anything else, including answers to the question, corrections of a single detail and small talk.
Always read the answer together with the question. A plain "no" answering a question is never restart.

Call the '%s' tool with the result.`

type parseCommandInput struct {
	Intent Command `json:"intent" jsonschema:"required,enum=restart,enum=none,description=The user's command intent"`
}

type exchange struct {
	question string
	answer   string
}

type ToolBasedCommandParser struct {
	chain *structured.Chain[exchange, parseCommandInput]
}

func NewToolBasedCommandParser(chatModel model.ToolCallingChatModel) (*ToolBasedCommandParser, error) {
	chain, err := structured.NewChain[exchange, parseCommandInput](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedCommandParser{chain: chain}, nil
}

func (p *ToolBasedCommandParser) ParseCommand(ctx context.Context, question, answer string) (Command, error) {
	result, err := p.chain.Invoke(ctx, exchange{question: question, answer: answer})
	if err != nil {
		return None, err
	}
	switch result.Intent {
	case Restart, None:
		return result.Intent, nil
	default:
		return None, fmt.Errorf("unexpected intent %q returned by %s", result.Intent, parseCommandToolName)
	}
}

func buildParseCommandPrompt(ctx context.Context, in exchange) ([]*schema.Message, error) {
	user := fmt.Sprintf("## Assistant Question:\n%s\n\n## User Answer:\n%s", in.question, in.answer)
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(DefaultParseCommandSystemPrompt, parseCommandToolName)),
		schema.UserMessage(user),
	}, nil
}
