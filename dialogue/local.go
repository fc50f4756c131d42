package dialogue

import (
	"context"
	"fmt"

	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/types"
)

// QuestionFor is the canned question table lookup.
func QuestionFor(c *catalog.Catalog, field types.Field, taskType string) *Prompt {
	var p catalog.Prompt
	switch field {
	case types.FieldSpecific:
		specific := c.SpecificFor(taskType)
		if specific == nil {
			return nil
		}
		p = specific.Prompt
	default:
		found, ok := c.Fields[field]
		if !ok {
			return nil
		}
		p = found
	}
	return &Prompt{
		Field:       field,
		Question:    p.Question,
		Suggestions: append([]string(nil), p.Suggestions...),
	}
}

type LocalQuestionGenerator struct {
	Catalog *catalog.Catalog
}

func NewLocalQuestionGenerator(c *catalog.Catalog) *LocalQuestionGenerator {
	return &LocalQuestionGenerator{Catalog: c}
}

func (g *LocalQuestionGenerator) GenerateQuestion(ctx context.Context, req *Request) (*Prompt, error) {
	return QuestionFor(g.Catalog, req.Field, req.TaskType), nil
}

type FailbackQuestionGenerator struct {
	generators []Generator
}

func NewFailbackQuestionGenerator(generators ...Generator) *FailbackQuestionGenerator {
	return &FailbackQuestionGenerator{generators: generators}
}

func (g *FailbackQuestionGenerator) GenerateQuestion(ctx context.Context, req *Request) (*Prompt, error) {
	var lastErr error
	for _, generator := range g.generators {
		prompt, err := generator.GenerateQuestion(ctx, req)
		if err == nil {
			return prompt, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all question generators failed: %w", lastErr)
}
