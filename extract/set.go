package extract

import (
	"context"

	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/types"
)

// Set bundles the extractors the dialogue runs. Any member may be replaced,
// e.g. Location with a FailbackExtractor over a model backed one.
type Set struct {
	TaskType     Extractor
	Budget       Extractor
	Timeline     Extractor
	Location     Extractor
	TaskSpecific *TaskSpecificExtractor
}

type SetOption func(*Set)

func WithLocationExtractor(e Extractor) SetOption {
	return func(s *Set) {
		s.Location = e
	}
}

func NewLocalSet(c *catalog.Catalog, opts ...SetOption) *Set {
	s := &Set{
		TaskType:     &TaskTypeExtractor{Catalog: c},
		Budget:       BudgetExtractor{},
		Timeline:     TimelineExtractor{},
		Location:     &LocationExtractor{AcceptHomeMention: DefaultHomeSatisfiesLocation},
		TaskSpecific: &TaskSpecificExtractor{Catalog: c},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FirstTurn runs every extractor on the opening message. TaskType and
// RawDetails are always populated.
func (s *Set) FirstTurn(ctx context.Context, text string) types.ScopingState {
	state := types.ScopingState{RawDetails: text}
	state.TaskType, _ = s.TaskType.Extract(ctx, text)
	if v, ok := s.Location.Extract(ctx, text); ok {
		state.Location = v
	}
	if v, ok := s.Budget.Extract(ctx, text); ok {
		state.Budget = v
	}
	if v, ok := s.Timeline.Extract(ctx, text); ok {
		state.Timeline = v
	}
	if v, ok := s.TaskSpecific.ExtractFor(state.TaskType, text); ok {
		state.TaskSpecific = v
	}
	return state
}

// Refine applies the extraction allowed while answering field. Only the budget
// is refined; every other answer is kept verbatim.
func (s *Set) Refine(ctx context.Context, field types.Field, answer string) string {
	if field == types.FieldBudget {
		if v, ok := s.Budget.Extract(ctx, answer); ok {
			return v
		}
	}
	return answer
}
