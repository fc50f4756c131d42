package agent

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/types"
)

// ScopingSpec is the missing-field policy of a scoping conversation.
type ScopingSpec interface {
	JsonSchema() (string, error)

	// MissingFields lists unmet fields, highest priority first. It is empty
	// exactly when the state is complete.
	MissingFields(current *types.ScopingState) []types.FieldInfo

	Summary(current *types.ScopingState) string
}

var _ ScopingSpec = (*CatalogSpec)(nil)

// fieldOrder is the fixed asking priority.
var fieldOrder = []types.Field{
	types.FieldLocation,
	types.FieldBudget,
	types.FieldTimeline,
	types.FieldSpecific,
}

// CatalogSpec decides which fields apply from a category catalog: the
// specific field is required only when the task type has a follow-up question.
type CatalogSpec struct {
	Catalog *catalog.Catalog
}

func NewCatalogSpec(c *catalog.Catalog) *CatalogSpec {
	return &CatalogSpec{Catalog: c}
}

func (s *CatalogSpec) JsonSchema() (string, error) {
	schema := jsonschema.Reflect(&types.ScopingState{})
	schema.Title = "Service request"
	schema.Description = "Slots collected while scoping a local service request. Empty fields are unknown."
	schemaBytes, err := sonic.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(schemaBytes), nil
}

func (s *CatalogSpec) MissingFields(current *types.ScopingState) []types.FieldInfo {
	if current == nil {
		current = &types.ScopingState{}
	}
	var missing []types.FieldInfo
	for _, field := range fieldOrder {
		if current.Get(field) != "" {
			continue
		}
		if field == types.FieldSpecific && s.Catalog.SpecificFor(current.TaskType) == nil {
			continue
		}
		info := types.FieldInfo{
			Field:       field,
			JSONPointer: field.Pointer(),
			DisplayName: s.Catalog.DisplayName(field),
			Required:    true,
		}
		if field == types.FieldSpecific {
			info.Description = s.Catalog.SpecificFor(current.TaskType).Question
		} else if p, ok := s.Catalog.Fields[field]; ok {
			info.Description = p.Question
		}
		missing = append(missing, info)
	}
	return missing
}

func (s *CatalogSpec) Summary(current *types.ScopingState) string {
	if current == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s request", orUnknown(current.TaskType))
	for _, field := range fieldOrder {
		value := current.Get(field)
		if value == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n- %s: %s", s.Catalog.DisplayName(field), value)
	}
	return sb.String()
}

// Complete reports whether the policy has nothing left to ask.
func Complete(spec ScopingSpec, current *types.ScopingState) bool {
	return len(spec.MissingFields(current)) == 0
}

func orUnknown(s string) string {
	if s == "" {
		return catalog.GeneralService
	}
	return s
}
