package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/tbxark/homi/catalog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

func containsFolded(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, fold(needle))
}

// TaskTypeExtractor applies the catalog categories in order. It always
// succeeds, falling back to the default category.
type TaskTypeExtractor struct {
	Catalog *catalog.Catalog
}

func (e *TaskTypeExtractor) Extract(ctx context.Context, text string) (string, bool) {
	folded := fold(text)
	for _, category := range e.Catalog.Categories {
		for _, keyword := range category.Keywords {
			if containsFolded(folded, keyword) {
				return category.Name, true
			}
		}
	}
	return e.Catalog.DefaultCategory, true
}

var budgetPattern = regexp.MustCompile(`\$\d+(?:\s*-\s*\$?\d+)?`)

type BudgetExtractor struct{}

func (BudgetExtractor) Extract(ctx context.Context, text string) (string, bool) {
	match := budgetPattern.FindString(text)
	return match, match != ""
}

type timelineRule struct {
	pattern *regexp.Regexp
	value   string
}

var timelineRules = []timelineRule{
	{regexp.MustCompile(`(?i)\b(today|asap)\b`), "Today"},
	{regexp.MustCompile(`(?i)\btomorrow\b`), "Tomorrow"},
	{regexp.MustCompile(`(?i)\bthis\s+week\b`), "This week"},
	{regexp.MustCompile(`(?i)\bnext\s+week\b`), "Next week"},
	{regexp.MustCompile(`(?i)\bweekend\b`), "This weekend"},
}

type TimelineExtractor struct{}

func (TimelineExtractor) Extract(ctx context.Context, text string) (string, bool) {
	for _, rule := range timelineRules {
		if rule.pattern.MatchString(text) {
			return rule.value, true
		}
	}
	return "", false
}

var (
	cityStatePattern = regexp.MustCompile(`\b([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)*),\s*([A-Z]{2})\b`)
	inPlacePattern   = regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)*)`)
	homePattern      = regexp.MustCompile(`(?i)\b(home|apartment|house)\b`)
)

var usStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true, "DE": true,
	"FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true, "IA": true, "KS": true,
	"KY": true, "LA": true, "ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true, "NM": true, "NY": true,
	"NC": true, "ND": true, "OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

// "in January" and "in Monday's slot" name a time, not a place.
var calendarWords = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

// LocationExtractor is a best-effort heuristic for place names.
type LocationExtractor struct {
	AcceptHomeMention bool
}

func (e *LocationExtractor) Extract(ctx context.Context, text string) (string, bool) {
	for _, m := range cityStatePattern.FindAllStringSubmatch(text, -1) {
		if usStateCodes[m[2]] {
			return m[1] + ", " + m[2], true
		}
	}
	for _, m := range inPlacePattern.FindAllStringSubmatch(text, -1) {
		first, _, _ := strings.Cut(m[1], " ")
		if !calendarWords[fold(first)] {
			return m[1], true
		}
	}
	if e.AcceptHomeMention && homePattern.MatchString(text) {
		return "Not specified (at home)", true
	}
	return "", false
}

// TaskSpecificExtractor satisfies the follow-up slot when the first message
// already names one of the category keywords.
type TaskSpecificExtractor struct {
	Catalog *catalog.Catalog
}

func (e *TaskSpecificExtractor) ExtractFor(taskType, text string) (string, bool) {
	specific := e.Catalog.SpecificFor(taskType)
	if specific == nil {
		return "", false
	}
	folded := fold(text)
	for _, keyword := range specific.Keywords {
		if containsFolded(folded, keyword) {
			return title(keyword), true
		}
	}
	return "", false
}
