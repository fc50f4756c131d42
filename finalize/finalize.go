package finalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/structured"
	"github.com/tbxark/homi/types"
)

// Derived holds the fields the generative collaborator adds to a scoped request.
type Derived struct {
	Skills         []string `json:"skills" jsonschema:"required,minItems=1,description=Skills a provider needs for this job"`
	Duration       string   `json:"duration" jsonschema:"required,description=Estimated duration, e.g. 2-3 hours"`
	SuggestedPrice *float64 `json:"suggestedPrice" jsonschema:"required,exclusiveMinimum=0,description=Suggested price in USD"`
	Description    string   `json:"description" jsonschema:"required,description=Normalized one paragraph job description"`

	// Echoed values; the locally collected slots take precedence.
	TaskType string `json:"taskType,omitempty" jsonschema:"description=Service category"`
	Location string `json:"location,omitempty" jsonschema:"description=Service location"`
}

// Finalizer turns complete slots into derived request fields. Errors wrap
// types.ErrCollaboratorFailure.
type Finalizer interface {
	Finalize(ctx context.Context, state *types.ScopingState) (*Derived, error)
}

// Validate enforces the contract: every field present, a positive price and a
// non-empty skill set.
func Validate(d *Derived) error {
	var errs []error
	if len(normalizeSkills(d.Skills)) == 0 {
		errs = append(errs, errors.New("skills must contain at least one skill"))
	}
	if strings.TrimSpace(d.Duration) == "" {
		errs = append(errs, errors.New("duration is required"))
	}
	if d.SuggestedPrice == nil {
		errs = append(errs, errors.New("suggestedPrice is required"))
	} else if *d.SuggestedPrice <= 0 {
		errs = append(errs, fmt.Errorf("suggestedPrice must be positive, got %v", *d.SuggestedPrice))
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	return errors.Join(errs...)
}

// normalizeSkills trims and de-duplicates, keeping first occurrence order.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

const (
	completeRequestToolName        = "complete_request"
	completeRequestToolDescription = "Return the derived fields of a fully scoped local service request."
)

const DefaultFinalizeSystemPrompt = `You price and describe local service jobs for a marketplace.
You receive a scoped request: category, location, budget, timeline, a category specific detail and the user's original words.
Derive:
- skills: the skills a provider needs (at least one, short nouns)
- duration: a realistic duration estimate as text
- suggestedPrice: a fair price in USD as a number, staying inside the user's budget when it is realistic
- description: one short paragraph a provider can read to understand the job
Call the '%s' tool with the result.`

type ToolBasedFinalizer struct {
	schema string
	chain  *structured.Chain[*types.ScopingState, Derived]
}

// NewToolBasedFinalizer builds the finalizer. stateSchema is embedded in the
// prompt when non-empty.
func NewToolBasedFinalizer(chatModel model.ToolCallingChatModel, stateSchema string) (*ToolBasedFinalizer, error) {
	f := &ToolBasedFinalizer{schema: stateSchema}
	chain, err := structured.NewChain[*types.ScopingState, Derived](
		chatModel,
		f.buildPrompt,
		completeRequestToolName,
		completeRequestToolDescription,
	)
	if err != nil {
		return nil, err
	}
	f.chain = chain.WithValidator(Validate)
	return f, nil
}

func (f *ToolBasedFinalizer) Finalize(ctx context.Context, state *types.ScopingState) (*Derived, error) {
	derived, err := f.chain.Invoke(ctx, state)
	if err != nil {
		if !errors.Is(err, types.ErrCollaboratorFailure) {
			err = fmt.Errorf("%w: %w", types.ErrCollaboratorFailure, err)
		}
		return nil, err
	}
	derived.Skills = normalizeSkills(derived.Skills)
	return derived, nil
}

func (f *ToolBasedFinalizer) buildPrompt(ctx context.Context, state *types.ScopingState) ([]*schema.Message, error) {
	if state == nil {
		return nil, errors.New("scoping state is nil")
	}
	message := types.FormatPromptRequest(&types.PromptRequest{
		State:       state,
		StateSchema: f.schema,
	})
	return []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(DefaultFinalizeSystemPrompt, completeRequestToolName)),
		schema.UserMessage(message),
	}, nil
}
