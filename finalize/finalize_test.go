package finalize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/homi/internal/modeltest"
	"github.com/tbxark/homi/types"
)

var scoped = &types.ScopingState{
	TaskType:     "Photography",
	Location:     "Manhattan, NY",
	Budget:       "$100-200",
	Timeline:     "this weekend",
	RawDetails:   "Looking for a photographer",
	TaskSpecific: "Portrait session",
}

func TestToolBasedFinalizer(t *testing.T) {
	m := modeltest.New(modeltest.ToolCall(completeRequestToolName,
		`{"skills":["Portrait photography"," photo editing","Portrait photography"],"duration":"2 hours","suggestedPrice":150,"description":"Portrait session in Manhattan.","taskType":"Photo","location":"NYC"}`))
	f, err := NewToolBasedFinalizer(m, `{"type":"object"}`)
	require.NoError(t, err)

	d, err := f.Finalize(context.Background(), scoped)
	require.NoError(t, err)
	assert.Equal(t, []string{"Portrait photography", "photo editing"}, d.Skills)
	assert.Equal(t, "2 hours", d.Duration)
	require.NotNil(t, d.SuggestedPrice)
	assert.InDelta(t, 150, *d.SuggestedPrice, 0.001)

	prompt := m.LastInput()
	require.Len(t, prompt, 2)
	assert.Contains(t, prompt[1].Content, "Manhattan, NY")
	assert.Contains(t, prompt[1].Content, "Portrait session")
	assert.Contains(t, prompt[1].Content, `{"type":"object"}`)
}

func TestToolBasedFinalizerSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing price":  `{"skills":["cleaning"],"duration":"3 hours","description":"Deep clean"}`,
		"zero price":     `{"skills":["cleaning"],"duration":"3 hours","suggestedPrice":0,"description":"Deep clean"}`,
		"empty skills":   `{"skills":[" "],"duration":"3 hours","suggestedPrice":90,"description":"Deep clean"}`,
		"missing fields": `{"suggestedPrice":90}`,
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := NewToolBasedFinalizer(modeltest.New(modeltest.ToolCall(completeRequestToolName, args)), "")
			require.NoError(t, err)
			_, err = f.Finalize(context.Background(), scoped)
			assert.ErrorIs(t, err, types.ErrSchemaViolation)
			assert.ErrorIs(t, err, types.ErrCollaboratorFailure)
		})
	}
}

func TestToolBasedFinalizerModelFailure(t *testing.T) {
	f, err := NewToolBasedFinalizer(modeltest.New(modeltest.Reply{Err: errors.New("timeout")}), "")
	require.NoError(t, err)

	_, err = f.Finalize(context.Background(), scoped)
	assert.ErrorIs(t, err, types.ErrCollaboratorFailure)
	assert.NotErrorIs(t, err, types.ErrSchemaViolation)
}

func TestValidate(t *testing.T) {
	price := 80.0
	assert.NoError(t, Validate(&Derived{Skills: []string{"moving"}, Duration: "1 day", SuggestedPrice: &price, Description: "Move"}))
	err := Validate(&Derived{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suggestedPrice is required")
}
