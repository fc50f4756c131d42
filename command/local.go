package command

import (
	"context"
	"strings"
)

type LocalCommandParser struct {
	RestartKeywords []string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		RestartKeywords: []string{"start over", "restart", "reset", "new request", "start again"},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, question, answer string) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	normalized = strings.TrimRight(normalized, ".!")
	for _, keyword := range p.RestartKeywords {
		if normalized == keyword {
			return Restart, nil
		}
	}
	return None, nil
}

type FailbackCommandParser struct {
	parsers []Parser
}

func NewFailbackCommandParser(parsers ...Parser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

// ParseCommand returns the first command other than None. Errors only surface
// when no parser recognized a command and at least one failed.
func (p *FailbackCommandParser) ParseCommand(ctx context.Context, question, answer string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, question, answer)
		if err != nil {
			lastErr = err
			continue
		}
		if cmd != None {
			return cmd, nil
		}
	}
	return None, lastErr
}
