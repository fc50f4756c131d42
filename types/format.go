package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

func formatSlotsSection(state *ScopingState) string {
	var buf strings.Builder
	buf.WriteString("# Collected slots:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Slot", "Value")
	rows := [][2]string{
		{"task type", state.TaskType},
		{"location", state.Location},
		{"budget", state.Budget},
		{"timeline", state.Timeline},
		{"task specific", state.TaskSpecific},
	}
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "(not specified)"
		}
		_ = table.Append(row[0], value)
	}
	_ = table.Render()
	return buf.String()
}

func formatMissingFieldsSection(fields []FieldInfo) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Missing fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Description")
	for _, field := range fields {
		_ = table.Append(field.DisplayName, field.JSONPointer, field.Description)
	}
	_ = table.Render()
	return buf.String()
}

// PromptRequest is the context handed to every LLM backed component.
type PromptRequest struct {
	State         *ScopingState
	StateSchema   string
	Question      string
	Answer        string
	MissingFields []FieldInfo
}

func FormatPromptRequest(req *PromptRequest) string {
	state := req.State
	if state == nil {
		state = &ScopingState{}
	}
	sections := []string{
		fmt.Sprintf("# Current Date:\n%s", time.Now().Format(time.RFC3339)),
	}
	if state.RawDetails != "" {
		sections = append(sections, fmt.Sprintf("# Original request:\n%s", state.RawDetails))
	}
	sections = append(sections, formatSlotsSection(state))
	if req.StateSchema != "" {
		sections = append(sections, fmt.Sprintf("# Slot schema JSON:\n```json\n%s\n```", req.StateSchema))
	}
	if req.Question != "" || req.Answer != "" {
		sections = append(sections, "# Latest Dialogue:")
		if req.Question != "" {
			sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", req.Question))
		}
		if req.Answer != "" {
			sections = append(sections, fmt.Sprintf("## User Answer:\n%s", req.Answer))
		}
	}
	if s := formatMissingFieldsSection(req.MissingFields); s != "" {
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n\n")
}
