package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/command"
	"github.com/tbxark/homi/dialogue"
	"github.com/tbxark/homi/extract"
	"github.com/tbxark/homi/finalize"
	"github.com/tbxark/homi/patch"
	"github.com/tbxark/homi/store"
	"github.com/tbxark/homi/types"
)

const (
	welcomeMessage   = "Hi! What do you need help with today?"
	restartMessage   = "No problem, let's start over. What do you need help with?"
	submittedMessage = "Your request has already been posted. Say \"start over\" to scope a new one."
)

// ScopingFlow is the dialogue controller of one scoping conversation. It owns
// no conversation state; every turn receives and returns it.
type ScopingFlow struct {
	spec          ScopingSpec
	catalog       *catalog.Catalog
	extractors    *extract.Set
	slotPatcher   patch.Generator
	questionGen   dialogue.Generator
	commandParser command.Parser
	finalizer     finalize.Finalizer
	requests      store.RequestStore

	thinkDelay time.Duration
	now        func() time.Time
	newID      func() string
}

type FlowOption func(*ScopingFlow)

// WithThinkDelay pauses every turn before replying.
func WithThinkDelay(d time.Duration) FlowOption {
	return func(f *ScopingFlow) {
		f.thinkDelay = d
	}
}

// WithSlotPatcher lets a patch generator fill unset slots on the first turn,
// after the local extractors ran.
func WithSlotPatcher(g patch.Generator) FlowOption {
	return func(f *ScopingFlow) {
		f.slotPatcher = g
	}
}

func WithClock(now func() time.Time) FlowOption {
	return func(f *ScopingFlow) {
		f.now = now
	}
}

func WithIDGenerator(newID func() string) FlowOption {
	return func(f *ScopingFlow) {
		f.newID = newID
	}
}

func NewScopingFlow(
	spec ScopingSpec,
	c *catalog.Catalog,
	extractors *extract.Set,
	questionGen dialogue.Generator,
	commandParser command.Parser,
	finalizer finalize.Finalizer,
	requests store.RequestStore,
	opts ...FlowOption,
) (*ScopingFlow, error) {
	switch {
	case spec == nil:
		return nil, errors.New("scoping spec is nil")
	case c == nil:
		return nil, errors.New("catalog is nil")
	case extractors == nil:
		return nil, errors.New("extractor set is nil")
	case questionGen == nil:
		return nil, errors.New("question generator is nil")
	case commandParser == nil:
		return nil, errors.New("command parser is nil")
	case finalizer == nil:
		return nil, errors.New("finalizer is nil")
	case requests == nil:
		return nil, errors.New("request store is nil")
	}
	flow := &ScopingFlow{
		spec:          spec,
		catalog:       c,
		extractors:    extractors,
		questionGen:   questionGen,
		commandParser: commandParser,
		finalizer:     finalizer,
		requests:      requests,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(flow)
		}
	}
	return flow, nil
}

// NewLocalScopingFlow runs the dialogue on the catalog heuristics alone. The
// finalizer is the only collaborator called, once per completed request.
func NewLocalScopingFlow(
	c *catalog.Catalog,
	finalizer finalize.Finalizer,
	requests store.RequestStore,
	opts ...FlowOption,
) (*ScopingFlow, error) {
	return NewScopingFlow(
		NewCatalogSpec(c),
		c,
		extract.NewLocalSet(c),
		dialogue.NewLocalQuestionGenerator(c),
		command.NewLocalCommandParser(),
		finalizer,
		requests,
		opts...,
	)
}

// NewToolBasedScopingFlow backs every local heuristic with the chat model and
// finalizes with it. Local results win; the model fills what they miss. lang is
// the language of reworded questions, English when empty.
func NewToolBasedScopingFlow(
	c *catalog.Catalog,
	chatModel model.ToolCallingChatModel,
	requests store.RequestStore,
	lang string,
	opts ...FlowOption,
) (*ScopingFlow, error) {
	spec := NewCatalogSpec(c)
	schema, err := spec.JsonSchema()
	if err != nil {
		return nil, err
	}
	locationExtractor, err := extract.NewToolBasedLocationExtractor(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based location extractor: %w", err)
	}
	parser, err := command.NewToolBasedCommandParser(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based command parser: %w", err)
	}
	patchGen, err := patch.NewToolBasedPatchGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based patch generator: %w", err)
	}
	finalizer, err := finalize.NewToolBasedFinalizer(chatModel, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based finalizer: %w", err)
	}
	local := extract.NewLocalSet(c)
	extractors := extract.NewLocalSet(c, extract.WithLocationExtractor(
		extract.NewFailbackExtractor(local.Location, locationExtractor),
	))
	questionGen := dialogue.NewFailbackQuestionGenerator(
		dialogue.NewToolBasedQuestionGenerator(chatModel, c, dialogue.WithQuestionLang(lang)),
		dialogue.NewLocalQuestionGenerator(c),
	)
	return NewScopingFlow(
		spec,
		c,
		extractors,
		questionGen,
		command.NewFailbackCommandParser(command.NewLocalCommandParser(), parser),
		finalizer,
		requests,
		append([]FlowOption{WithSlotPatcher(patchGen)}, opts...)...,
	)
}

// Invoke runs one turn. Turn failures the user can recover from come back as
// a Response with Err set; the returned error is reserved for cancellation.
func (f *ScopingFlow) Invoke(ctx context.Context, input *Request) (*Response, error) {
	if input.State == nil {
		input.State = NewState()
	}
	if input.State.Phase == "" {
		input.State.Phase = types.PhaseAwaitingInput
	}
	ctx = callbacks.EnsureRunInfo(ctx, "ScopingFlow", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"input":   input.UserInput,
		"phase":   string(input.State.Phase),
		"scoping": input.State.Scoping,
	})

	defer func() {
		if r := recover(); r != nil {
			callbacks.OnError(ctx, fmt.Errorf("panic in ScopingFlow.Invoke: %v", r))
			panic(r)
		}
	}()

	response, err := f.runInternal(ctx, input)
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}

	callbacks.OnEnd(ctx, map[string]any{
		"response": response,
		"phase":    string(response.State.Phase),
	})
	return response, nil
}

// Greeting returns the prompt pending in state without running a turn.
func (f *ScopingFlow) Greeting(state *State) *Response {
	if state == nil {
		state = NewState()
	}
	switch state.Phase {
	case types.PhaseAsking:
		return &Response{
			Message:     state.LatestQuestion,
			Suggestions: state.Suggestions,
			State:       state,
			Metadata:    map[string]string{MetadataField: string(state.Asking)},
		}
	case types.PhaseComplete:
		if state.Request != nil {
			return &Response{Message: submittedMessage, State: state}
		}
		return &Response{Message: f.spec.Summary(state.Scoping), State: state}
	default:
		state.Suggestions = append([]string(nil), f.catalog.QuickStarters...)
		return &Response{Message: welcomeMessage, Suggestions: state.Suggestions, State: state}
	}
}

func (f *ScopingFlow) runInternal(ctx context.Context, input *Request) (*Response, error) {
	if input.Modality == ModalityVoice {
		return f.handleError(fmt.Errorf("voice capture: %w", types.ErrUnsupportedInput), input)
	}
	if err := f.think(ctx); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.UserInput)
	if text == "" {
		return f.Greeting(input.State), nil
	}

	slog.Debug("Parsing command", "phase", input.State.Phase, "input", text)
	cmd, err := f.commandParser.ParseCommand(ctx, input.State.LatestQuestion, text)
	if err != nil {
		slog.Warn("Command parsing failed, treating input as an answer", "error", err)
		cmd = command.None
	}
	slog.Debug("Parsed command", "command", cmd)
	if cmd == command.Restart {
		return f.restart(input), nil
	}

	switch input.State.Phase {
	case types.PhaseAwaitingInput:
		return f.firstTurn(ctx, input, text)
	case types.PhaseAsking:
		return f.answer(ctx, input, text)
	case types.PhaseComplete:
		if input.State.Request != nil {
			return &Response{Message: submittedMessage, Suggestions: []string{"Start over"}, State: input.State}, nil
		}
		slog.Debug("Retrying finalization")
		return f.finalize(ctx, input)
	default:
		return f.handleError(fmt.Errorf("unknown phase %q", input.State.Phase), input)
	}
}

func (f *ScopingFlow) firstTurn(ctx context.Context, input *Request, text string) (*Response, error) {
	current := input.State.Scoping
	if current == nil {
		current = &types.ScopingState{}
	}
	extracted := f.extractors.FirstTurn(ctx, text)
	slog.Debug("Extracted slots", "slots", extracted)

	allowed, err := patch.EmptyPaths(current)
	if err != nil {
		return f.handleError(fmt.Errorf("failed to compute writable slots: %w", err), input)
	}
	ops, err := patch.GeneratePatchesFromInitial(current, &extracted)
	if err != nil {
		return f.handleError(fmt.Errorf("failed to build slot writes: %w", err), input)
	}
	next, err := applySlots(current, patch.FilterAllowed(ops, allowed), allowed)
	if err != nil {
		return f.handleError(err, input)
	}

	if f.slotPatcher != nil {
		next = f.patchSlots(ctx, next, input.State.LatestQuestion, text)
	}
	input.State.Scoping = next
	return f.advance(ctx, input, text)
}

// patchSlots asks the slot patcher for values the extractors missed. Failures
// keep the extracted slots.
func (f *ScopingFlow) patchSlots(ctx context.Context, current *types.ScopingState, question, text string) *types.ScopingState {
	allowed, err := writableSlots(current)
	if err != nil || len(allowed) == 0 {
		return current
	}
	paths := make([]string, 0, len(allowed))
	for path := range allowed {
		paths = append(paths, path)
	}
	slog.Debug("Requesting slot patch", "allowed", paths)
	missing := f.spec.MissingFields(current)
	args, err := f.slotPatcher.GeneratePatch(ctx, &patch.Request{
		Question:      question,
		UserInput:     text,
		CurrentState:  current,
		AllowedPaths:  paths,
		MissingFields: missing,
		FieldGuidance: f.fieldGuidance(current.TaskType, missing, allowed),
	})
	if err != nil {
		slog.Warn("Slot patch failed", "error", err)
		return current
	}
	next, err := applySlots(current, patch.FilterAllowed(args.Ops, allowed), allowed)
	if err != nil {
		slog.Warn("Slot patch rejected", "error", err)
		return current
	}
	slog.Debug("Applied slot patch", "ops", args.Ops, "to_state", next)
	return next
}

func (f *ScopingFlow) answer(ctx context.Context, input *Request, text string) (*Response, error) {
	current := input.State.Scoping
	if current == nil {
		return f.handleError(errors.New("asking without collected slots"), input)
	}
	field := input.State.Asking
	if field == "" {
		return f.advance(ctx, input, text)
	}

	allowed, err := writableSlots(current)
	if err != nil {
		return f.handleError(fmt.Errorf("failed to compute writable slots: %w", err), input)
	}
	value := f.extractors.Refine(ctx, field, text)
	next, err := applySlots(current, []patch.Operation{patch.Set(field, value)}, allowed)
	if err != nil {
		return f.handleError(err, input)
	}
	slog.Debug("Stored answer", "field", field, "value", value)
	input.State.Scoping = next
	return f.advance(ctx, input, text)
}

// fieldGuidance describes each writable missing slot by its catalog question
// and quick replies.
func (f *ScopingFlow) fieldGuidance(taskType string, missing []types.FieldInfo, allowed map[string]bool) map[string]string {
	guidance := make(map[string]string, len(missing))
	for _, info := range missing {
		if !allowed[info.JSONPointer] {
			continue
		}
		prompt := dialogue.QuestionFor(f.catalog, info.Field, taskType)
		if prompt == nil {
			continue
		}
		text := prompt.Question
		if len(prompt.Suggestions) > 0 {
			text += " Examples: " + strings.Join(prompt.Suggestions, ", ")
		}
		guidance[info.JSONPointer] = text
	}
	return guidance
}

// advance asks for the head of the missing fields or finalizes.
func (f *ScopingFlow) advance(ctx context.Context, input *Request, lastInput string) (*Response, error) {
	state := input.State
	missing := f.spec.MissingFields(state.Scoping)
	if len(missing) == 0 {
		state.Phase = types.PhaseComplete
		state.Asking = ""
		state.LatestQuestion = ""
		state.Suggestions = nil
		return f.finalize(ctx, input)
	}

	head := missing[0]
	req := &dialogue.Request{
		Field:         head.Field,
		TaskType:      state.Scoping.TaskType,
		State:         state.Scoping,
		MissingFields: missing,
		LastQuestion:  state.LatestQuestion,
		LastUserInput: lastInput,
	}
	slog.Debug("Generating question", "field", head.Field)
	prompt, err := f.questionGen.GenerateQuestion(ctx, req)
	if err != nil {
		slog.Warn("Question generation failed, using the catalog question", "field", head.Field, "error", err)
		prompt = dialogue.QuestionFor(f.catalog, head.Field, state.Scoping.TaskType)
	}
	if prompt == nil {
		return f.handleError(fmt.Errorf("no question registered for field %q", head.Field), input)
	}

	state.Phase = types.PhaseAsking
	state.Asking = head.Field
	state.LatestQuestion = prompt.Question
	state.Suggestions = prompt.Suggestions
	slog.Debug("Generated question", "question", prompt.Question)
	return &Response{
		Message:     prompt.Question,
		Suggestions: prompt.Suggestions,
		State:       state,
		Metadata:    map[string]string{MetadataField: string(head.Field)},
	}, nil
}

func (f *ScopingFlow) finalize(ctx context.Context, input *Request) (*Response, error) {
	state := input.State
	scoping := state.Scoping
	if scoping == nil {
		return f.handleError(errors.New("no collected slots to finalize"), input)
	}

	slog.Debug("Finalizing request", "slots", scoping)
	derived, err := f.finalizer.Finalize(ctx, scoping)
	if err == nil && derived == nil {
		err = fmt.Errorf("%w: %w: finalizer returned no result", types.ErrCollaboratorFailure, types.ErrSchemaViolation)
	}
	if err == nil {
		if vErr := finalize.Validate(derived); vErr != nil {
			err = fmt.Errorf("%w: %w", types.ErrSchemaViolation, vErr)
		}
	}
	if err != nil {
		return f.handleError(fmt.Errorf("failed to finalize request: %w", err), input)
	}

	userID := input.UserID
	if userID == "" {
		userID = AnonymousUserID
	}
	now := f.now().UTC()
	req := &types.CompletedRequest{
		ID:             f.newID(),
		UserID:         userID,
		RawInput:       scoping.RawDetails,
		TaskType:       firstNonEmpty(scoping.TaskType, derived.TaskType),
		Location:       firstNonEmpty(scoping.Location, derived.Location),
		Budget:         scoping.Budget,
		Timeline:       scoping.Timeline,
		TaskSpecific:   scoping.TaskSpecific,
		Skills:         derived.Skills,
		Duration:       derived.Duration,
		SuggestedPrice: *derived.SuggestedPrice,
		Description:    derived.Description,
		Status:         types.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := f.requests.Create(ctx, req); err != nil {
		return f.handleError(fmt.Errorf("%w: failed to save request: %w", types.ErrCollaboratorFailure, err), input)
	}
	slog.Debug("Saved request", "id", req.ID, "user_id", req.UserID)

	state.Request = req
	state.Scoping = nil
	return &Response{
		Message:  completedMessage(req),
		State:    state,
		Metadata: map[string]string{MetadataRequestID: req.ID},
	}, nil
}

func (f *ScopingFlow) restart(input *Request) *Response {
	*input.State = *NewState()
	input.State.Suggestions = append([]string(nil), f.catalog.QuickStarters...)
	return &Response{
		Message:     restartMessage,
		Suggestions: input.State.Suggestions,
		State:       input.State,
		Metadata:    map[string]string{MetadataCommand: string(command.Restart)},
	}
}

func (f *ScopingFlow) handleError(err error, input *Request) (*Response, error) {
	slog.Warn("Turn failed", "phase", input.State.Phase, "error", err)
	message := "Sorry, something went wrong while handling your message. Please try again."
	switch {
	case errors.Is(err, types.ErrUnsupportedInput):
		message = "Voice input isn't supported here. Please type your message instead."
	case errors.Is(err, types.ErrCollaboratorFailure):
		message = "Sorry, I couldn't finish preparing your request. Send any message to try again."
	}
	return &Response{
		Message:     message,
		Suggestions: input.State.Suggestions,
		State:       input.State,
		Metadata:    map[string]string{MetadataError: err.Error()},
		Err:         err,
	}, nil
}

func (f *ScopingFlow) think(ctx context.Context) error {
	if f.thinkDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.thinkDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// writableSlots are the unset slots a later turn may fill. The task type and
// the raw details belong to the first turn.
func writableSlots(current *types.ScopingState) (map[string]bool, error) {
	allowed, err := patch.EmptyPaths(current)
	if err != nil {
		return nil, err
	}
	delete(allowed, "/task_type")
	delete(allowed, "/raw_details")
	return allowed, nil
}

func applySlots(current *types.ScopingState, ops []patch.Operation, allowed map[string]bool) (*types.ScopingState, error) {
	if err := patch.ValidatePatchOperations(ops, allowed); err != nil {
		return nil, fmt.Errorf("rejected slot write: %w", err)
	}
	next, err := patch.ApplySlots(current, ops)
	if err != nil {
		return nil, fmt.Errorf("failed to apply slot write: %w", err)
	}
	return next, nil
}

func completedMessage(req *types.CompletedRequest) string {
	return fmt.Sprintf("Your %s request is ready. %s\nSuggested price: $%.0f, estimated time: %s.",
		req.TaskType, req.Description, req.SuggestedPrice, req.Duration)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
