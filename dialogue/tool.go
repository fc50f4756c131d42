package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/types"
)

// ToolBasedQuestionGenerator rewords the canned question with the chat model.
// Suggestions always come from the catalog.
type ToolBasedQuestionGenerator struct {
	Lang      string
	catalog   *catalog.Catalog
	chatModel model.BaseChatModel
}

// QuestionSystemPromptTemplate takes the reply language.
const QuestionSystemPromptTemplate = `You are Homi, a friendly assistant that helps people book local services.
You are given what the user asked for so far and the exact question that must be asked next.
Rewrite that question as one short, warm sentence that fits the conversation. Ask for exactly that one detail and nothing else.
Do not promise prices, providers or dates. Do not use lists.
Reply in %s.
`

const defaultQuestionLang = "English"

type GeneratorOption func(*ToolBasedQuestionGenerator)

// WithQuestionLang sets the reply language. Empty keeps English.
func WithQuestionLang(lang string) GeneratorOption {
	return func(g *ToolBasedQuestionGenerator) {
		if lang != "" {
			g.Lang = lang
		}
	}
}

func NewToolBasedQuestionGenerator(chatModel model.BaseChatModel, c *catalog.Catalog, opts ...GeneratorOption) *ToolBasedQuestionGenerator {
	g := &ToolBasedQuestionGenerator{
		Lang:      defaultQuestionLang,
		catalog:   c,
		chatModel: chatModel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *ToolBasedQuestionGenerator) GenerateQuestion(ctx context.Context, req *Request) (*Prompt, error) {
	prompt := QuestionFor(g.catalog, req.Field, req.TaskType)
	if prompt == nil {
		return nil, nil
	}
	message := types.FormatPromptRequest(&types.PromptRequest{
		State:         req.State,
		Question:      req.LastQuestion,
		Answer:        req.LastUserInput,
		MissingFields: req.MissingFields,
	})
	message += fmt.Sprintf("\n\n# Question to ask next:\n%s", prompt.Question)

	response, err := g.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(QuestionSystemPromptTemplate, g.Lang)),
		schema.UserMessage(message),
	})
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	question := strings.TrimSpace(response.Content)
	if question == "" {
		return nil, errors.New("LLM returned an empty question")
	}
	prompt.Question = question
	return prompt, nil
}
