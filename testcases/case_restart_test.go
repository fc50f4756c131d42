package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/types"
)

// TestRestartInOwnWords needs the model to read a restart the keyword list
// does not cover.
func TestRestartInOwnWords(t *testing.T) {
	t.Parallel()
	a, _ := NewTestAgent(t)
	ctx := agent.WithStateKey(context.Background(), "restart")

	if _, err := a.Turn(ctx, "I need help with trash removal in Brooklyn, NY", agent.ModalityText); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	resp, err := a.Turn(ctx, "Scrap all of that, I want to begin again from scratch", agent.ModalityText)
	if err != nil {
		t.Fatalf("restart turn failed: %v", err)
	}
	t.Logf("response: %s", resp.Message)
	if resp.State.Phase != types.PhaseAwaitingInput {
		t.Errorf("expected phase awaiting_input, got %s", resp.State.Phase)
	}
	if resp.Metadata[agent.MetadataCommand] == "" {
		t.Error("expected the restart command in metadata")
	}
}
