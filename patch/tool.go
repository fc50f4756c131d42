package patch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/structured"
	"github.com/tbxark/homi/types"
)

const (
	updateSlotsToolName        = "update_slots"
	updateSlotsToolDescription = "Generate RFC6902 add operations for request slots the user explicitly mentioned. Return no operations when nothing applies."
)

// ToolBasedPatchGenerator lets the chat model fill slots the local extractors
// missed. Ops outside AllowedPaths are dropped, never applied.
type ToolBasedPatchGenerator struct {
	chain *structured.Chain[*Request, UpdateSlotsArgs]
}

func NewToolBasedPatchGenerator(chatModel model.ToolCallingChatModel) (*ToolBasedPatchGenerator, error) {
	chain, err := structured.NewChain[*Request, UpdateSlotsArgs](
		chatModel,
		buildPatchPrompt,
		updateSlotsToolName,
		updateSlotsToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedPatchGenerator{chain: chain}, nil
}

func (g *ToolBasedPatchGenerator) GeneratePatch(ctx context.Context, req *Request) (*UpdateSlotsArgs, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	allowed := make(map[string]bool, len(req.AllowedPaths))
	for _, path := range req.AllowedPaths {
		allowed[path] = true
	}
	return &UpdateSlotsArgs{Ops: FilterAllowed(result.Ops, allowed)}, nil
}

func buildPatchPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf("You help scope requests for local services. Analyze the user message and call %s with RFC6902 add operations. Rules: only use information the user stated explicitly; only use allowed paths; values are short plain strings; keep budgets as written (e.g. $50-100); if nothing applies, return an empty ops list.", updateSlotsToolName)

	sections := []string{
		types.FormatPromptRequest(&types.PromptRequest{
			State:         req.CurrentState,
			Question:      req.Question,
			Answer:        req.UserInput,
			MissingFields: req.MissingFields,
		}),
		fmt.Sprintf("# Allowed paths:\n%s", formatAllowedPaths(req.AllowedPaths)),
	}
	if s := formatFieldGuidanceSection(req.FieldGuidance); s != "" {
		sections = append(sections, s)
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}

func formatAllowedPaths(paths []string) string {
	if len(paths) == 0 {
		return "none (return an empty ops list)"
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return "- " + strings.Join(sorted, "\n- ")
}

func formatFieldGuidanceSection(guidance map[string]string) string {
	if len(guidance) == 0 {
		return ""
	}
	keys := make([]string, 0, len(guidance))
	for path := range guidance {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString("# Field guidance:\n")
	for _, path := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", path, guidance[path])
	}
	return strings.TrimRight(sb.String(), "\n")
}
