package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/tbxark/homi/types"
)

var (
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	requestStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

func renderReply(message string, suggestions []string, errText string) string {
	var b strings.Builder
	b.WriteString(assistantStyle.Render("Homi:") + " " + message)
	for i, s := range suggestions {
		b.WriteString("\n  " + suggestionStyle.Render(fmt.Sprintf("%d) %s", i+1, s)))
	}
	if errText != "" {
		b.WriteString("\n" + errorStyle.Render(errText))
	}
	return b.String()
}

func renderRequest(req *types.CompletedRequest) string {
	lines := []string{
		fmt.Sprintf("%s in %s", req.TaskType, req.Location),
		req.Description,
		"Skills: " + strings.Join(req.Skills, ", "),
		"Duration: " + req.Duration,
		fmt.Sprintf("Suggested price: $%.2f", req.SuggestedPrice),
		"Status: " + string(req.Status),
	}
	return requestStyle.Render(strings.Join(lines, "\n"))
}

// resolveSuggestion maps a bare number typed at the prompt to the matching
// suggestion.
func resolveSuggestion(input string, suggestions []string) string {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(suggestions) {
		return input
	}
	return suggestions[n-1]
}

func writeRequestTable(w io.Writer, requests []*types.CompletedRequest) error {
	table := tablewriter.NewTable(w)
	table.Header("ID", "Task", "Location", "Price", "Status", "Created")
	for _, req := range requests {
		if err := table.Append(
			req.ID,
			req.TaskType,
			req.Location,
			fmt.Sprintf("$%.2f", req.SuggestedPrice),
			string(req.Status),
			req.CreatedAt.Local().Format("2006-01-02 15:04"),
		); err != nil {
			return err
		}
	}
	return table.Render()
}
