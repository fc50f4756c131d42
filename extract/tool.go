package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/structured"
)

const (
	extractLocationToolName        = "extract_location"
	extractLocationToolDescription = "Report the place where the user needs the service, if the message names one."
)

const DefaultLocationSystemPrompt = `You read short requests for local services (cleaning, moving, repairs, photography and similar).
Decide whether the message names the place where the work should happen: a city, a neighborhood, a borough or "City, ST".
Only use what the user wrote. Do not guess from context and do not treat "home" or "my apartment" as a place.
Call the '%s' tool with found=false when no place is named.`

type locationResult struct {
	Found    bool   `json:"found" jsonschema:"required,description=Whether the message names a place"`
	Location string `json:"location,omitempty" jsonschema:"description=The place as the user wrote it, e.g. Brooklyn, NY"`
}

// ToolBasedLocationExtractor asks the chat model for the location. Model
// failures are logged and reported as a miss.
type ToolBasedLocationExtractor struct {
	chain *structured.Chain[string, locationResult]
}

func NewToolBasedLocationExtractor(chatModel model.ToolCallingChatModel) (*ToolBasedLocationExtractor, error) {
	systemPrompt := fmt.Sprintf(DefaultLocationSystemPrompt, extractLocationToolName)
	chain, err := structured.NewChain[string, locationResult](
		chatModel,
		func(ctx context.Context, text string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(systemPrompt),
				schema.UserMessage(text),
			}, nil
		},
		extractLocationToolName,
		extractLocationToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedLocationExtractor{chain: chain}, nil
}

func (e *ToolBasedLocationExtractor) Extract(ctx context.Context, text string) (string, bool) {
	result, err := e.chain.Invoke(ctx, text)
	if err != nil {
		slog.Warn("Location extraction failed", "error", err)
		return "", false
	}
	location := strings.TrimSpace(result.Location)
	if !result.Found || location == "" {
		return "", false
	}
	return location, true
}

// FailbackExtractor returns the first hit of its extractors.
type FailbackExtractor struct {
	extractors []Extractor
}

func NewFailbackExtractor(extractors ...Extractor) *FailbackExtractor {
	return &FailbackExtractor{extractors: extractors}
}

func (e *FailbackExtractor) Extract(ctx context.Context, text string) (string, bool) {
	for _, extractor := range e.extractors {
		if value, ok := extractor.Extract(ctx, text); ok {
			return value, true
		}
	}
	return "", false
}
