package agent

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/homi/auth"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/finalize"
	"github.com/tbxark/homi/store"
	"github.com/tbxark/homi/types"
)

type blockingFinalizer struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingFinalizer() *blockingFinalizer {
	return &blockingFinalizer{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingFinalizer) Finalize(ctx context.Context, state *types.ScopingState) (*finalize.Derived, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	price := 110.0
	return &finalize.Derived{
		Skills:         []string{"deep cleaning"},
		Duration:       "3 hours",
		SuggestedPrice: &price,
		Description:    "Deep clean in " + state.Location,
	}, nil
}

type instantFinalizer struct{}

func (instantFinalizer) Finalize(ctx context.Context, state *types.ScopingState) (*finalize.Derived, error) {
	price := 90.0
	return &finalize.Derived{Skills: []string{"general"}, Duration: "1 hour", SuggestedPrice: &price, Description: "Job"}, nil
}

func newTestAgent(t *testing.T, fin finalize.Finalizer) *Agent {
	t.Helper()
	flow, err := NewLocalScopingFlow(catalog.Default(), fin, store.NewMemoryRequestStore())
	require.NoError(t, err)
	return NewAgent("Homi", "Scopes local service requests", flow)
}

func TestAgentKeepsConversationsApart(t *testing.T) {
	a := newTestAgent(t, instantFinalizer{})
	ctx := context.Background()
	alice := WithStateKey(ctx, "alice")
	bob := WithStateKey(ctx, "bob")

	resp, err := a.Turn(alice, "Looking for a photographer", ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "Where are you located?", resp.Message)

	resp, err = a.Turn(bob, "I need help with trash removal in Brooklyn, NY", ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "What's your budget for this?", resp.Message)

	resp, err = a.Turn(alice, "Queens, NY", ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "What's your budget for this?", resp.Message)
	assert.Equal(t, "Queens, NY", resp.State.Scoping.Location)
	assert.Equal(t, "Photography", resp.State.Scoping.TaskType)
}

func TestAgentRejectsConcurrentTurn(t *testing.T) {
	fin := newBlockingFinalizer()
	a := newTestAgent(t, fin)
	ctx := WithStateKey(context.Background(), "busy")

	done := make(chan error, 1)
	go func() {
		_, err := a.Turn(ctx, "Need a deep clean in Astoria this weekend, $120", ModalityText)
		done <- err
	}()

	select {
	case <-fin.started:
	case <-time.After(5 * time.Second):
		t.Fatal("finalization did not start")
	}

	_, err := a.Turn(ctx, "hello?", ModalityText)
	assert.ErrorIs(t, err, types.ErrTurnInProgress)

	resp, err := a.Turn(WithStateKey(context.Background(), "other"), "Looking for a photographer", ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "Where are you located?", resp.Message)

	close(fin.release)
	require.NoError(t, <-done)

	resp, err = a.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, submittedMessage, resp.Message)
	require.NotNil(t, resp.State.Request)
	assert.Equal(t, "Deep clean in Astoria", resp.State.Request.Description)
}

func TestAgentRejectsResetAndGreetingDuringTurn(t *testing.T) {
	fin := newBlockingFinalizer()
	a := newTestAgent(t, fin)
	ctx := WithStateKey(context.Background(), "busy-reset")

	done := make(chan error, 1)
	go func() {
		_, err := a.Turn(ctx, "Need a deep clean in Astoria this weekend, $120", ModalityText)
		done <- err
	}()

	select {
	case <-fin.started:
	case <-time.After(5 * time.Second):
		t.Fatal("finalization did not start")
	}

	assert.ErrorIs(t, a.Reset(ctx), types.ErrTurnInProgress)
	_, err := a.Greeting(ctx)
	assert.ErrorIs(t, err, types.ErrTurnInProgress)

	close(fin.release)
	require.NoError(t, <-done)

	require.NoError(t, a.Reset(ctx))
	resp, err := a.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, welcomeMessage, resp.Message)
	assert.Equal(t, types.PhaseAwaitingInput, resp.State.Phase)
}

func TestAgentAttachesUser(t *testing.T) {
	a := newTestAgent(t, instantFinalizer{})
	user, err := auth.UserForEmail("dana@example.com")
	require.NoError(t, err)
	ctx := auth.WithUser(WithStateKey(context.Background(), "dana"), user)

	resp, err := a.Turn(ctx, "Need a deep clean in Astoria this weekend, $120", ModalityText)
	require.NoError(t, err)
	require.NotNil(t, resp.State.Request)
	assert.Equal(t, user.ID, resp.State.Request.UserID)
}

func TestAgentHistoryAndReset(t *testing.T) {
	a := newTestAgent(t, instantFinalizer{})
	ctx := WithStateKey(context.Background(), "h")

	_, err := a.Turn(ctx, "Looking for a photographer", ModalityText)
	require.NoError(t, err)
	_, err = a.Turn(ctx, "", ModalityVoice)
	require.NoError(t, err)

	history, err := a.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, "Where are you located?", history[1].Content)

	require.NoError(t, a.Reset(ctx))
	history, err = a.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	resp, err := a.Greeting(ctx)
	require.NoError(t, err)
	assert.Equal(t, welcomeMessage, resp.Message)
}

func TestAgentRunWithRunner(t *testing.T) {
	a := newTestAgent(t, instantFinalizer{})
	ctx := context.Background()
	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: a})

	iter := runner.Run(WithStateKey(ctx, "adk"), []adk.Message{schema.UserMessage("Looking for a photographer")})
	event, ok := iter.Next()
	require.True(t, ok)
	require.NoError(t, event.Err)
	msg, err := event.Output.MessageOutput.GetMessage()
	require.NoError(t, err)
	assert.Equal(t, "Where are you located?", msg.Content)
	assert.Len(t, msg.Extra[ExtraSuggestions], 4)
	assert.Equal(t, string(types.PhaseAsking), msg.Extra[ExtraPhase])

	_, ok = iter.Next()
	assert.False(t, ok)
}

func TestAgentRunWithoutMessages(t *testing.T) {
	a := newTestAgent(t, instantFinalizer{})
	iter := a.Run(context.Background(), &adk.AgentInput{})
	event, ok := iter.Next()
	require.True(t, ok)
	assert.Error(t, event.Err)
}

func TestTurnLock(t *testing.T) {
	l := NewTurnLock()
	release, err := l.Acquire("k")
	require.NoError(t, err)

	_, err = l.Acquire("k")
	assert.ErrorIs(t, err, types.ErrTurnInProgress)
	other, err := l.Acquire("other")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire("k")
	require.NoError(t, err)
	again()
}

func TestKeepSystemLastNTrimmer(t *testing.T) {
	history := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("u1"),
		schema.AssistantMessage("a1", nil),
		schema.UserMessage("u2"),
		schema.AssistantMessage("a2", nil),
	}
	trimmed := KeepSystemLastNTrimmer{N: 2}.Trim(history)
	require.Len(t, trimmed, 3)
	assert.Equal(t, "sys", trimmed[0].Content)
	assert.Equal(t, "u2", trimmed[1].Content)
	assert.Equal(t, "a2", trimmed[2].Content)

	assert.Len(t, KeepSystemLastNTrimmer{N: 0}.Trim(history), 1)
	assert.Len(t, KeepSystemLastNTrimmer{N: 10}.Trim(history), 5)
}

func TestCacheStateReadWriterRoundTrip(t *testing.T) {
	rw := NewMemoryStateReadWriter(nil)
	ctx := WithStateKey(context.Background(), "rt")

	state, err := rw.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewState(), state)

	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	state = &State{
		Phase: types.PhaseComplete,
		Request: &types.CompletedRequest{
			ID: "r1", UserID: "u1", Skills: []string{"a"}, SuggestedPrice: 42.5,
			Status: types.StatusPending, CreatedAt: created, UpdatedAt: created,
		},
	}
	require.NoError(t, rw.Write(ctx, state))
	got, err := rw.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Phase, got.Phase)
	assert.Equal(t, "r1", got.Request.ID)
	assert.True(t, created.Equal(got.Request.CreatedAt))
	assert.NotSame(t, state, got)

	require.NoError(t, rw.Remove(ctx))
	got, err = rw.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseAwaitingInput, got.Phase)
}

func TestKeyedStoreScopesByConversation(t *testing.T) {
	core := NewMemoryCache[string]()
	s := NewKeyedStore[string](core, "ns")
	ctx := context.Background()

	require.NoError(t, s.Set(WithStateKey(ctx, "one"), "1"))
	require.NoError(t, s.Set(ctx, "fallback"))

	got, ok, err := s.Get(WithStateKey(ctx, "one"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", got)

	_, ok, err = s.Get(WithStateKey(ctx, "two"))
	require.NoError(t, err)
	assert.False(t, ok)

	raw, ok, err := core.Get(ctx, "ns:default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fallback", raw)

	require.NoError(t, s.Del(WithStateKey(ctx, "one")))
	_, ok, err = s.Get(WithStateKey(ctx, "one"))
	require.NoError(t, err)
	assert.False(t, ok)
}
