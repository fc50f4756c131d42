package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/internal/modeltest"
	"github.com/tbxark/homi/types"
)

func TestQuestionFor(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		field    types.Field
		taskType string
		question string
	}{
		{types.FieldLocation, "Cleaning", "Where are you located?"},
		{types.FieldBudget, "Cleaning", "What's your budget for this?"},
		{types.FieldTimeline, "Tech Support", "When do you need this done?"},
		{types.FieldSpecific, "Photography", "What type of photography session?"},
		{types.FieldSpecific, "Cleaning", "What type of cleaning do you need?"},
	}
	for _, tt := range tests {
		p := QuestionFor(c, tt.field, tt.taskType)
		require.NotNil(t, p, tt.field)
		assert.Equal(t, tt.question, p.Question)
		assert.Equal(t, tt.field, p.Field)
		assert.GreaterOrEqual(t, len(p.Suggestions), 3)
		assert.LessOrEqual(t, len(p.Suggestions), 4)
	}

	assert.Nil(t, QuestionFor(c, types.FieldSpecific, "Tech Support"))
	assert.Nil(t, QuestionFor(c, types.FieldSpecific, catalog.GeneralService))
}

func TestQuestionForReturnsCopies(t *testing.T) {
	c := catalog.Default()
	p := QuestionFor(c, types.FieldBudget, "")
	p.Suggestions[0] = "changed"
	assert.Equal(t, "$50-100", QuestionFor(c, types.FieldBudget, "").Suggestions[0])
}

func TestToolBasedQuestionGenerator(t *testing.T) {
	c := catalog.Default()
	m := modeltest.New(modeltest.Reply{Content: "  Nice! Which neighborhood should the photographer come to?  "})
	g := NewToolBasedQuestionGenerator(m, c)

	p, err := g.GenerateQuestion(context.Background(), &Request{
		Field:    types.FieldLocation,
		TaskType: "Photography",
		State:    &types.ScopingState{TaskType: "Photography", RawDetails: "Looking for a photographer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nice! Which neighborhood should the photographer come to?", p.Question)
	assert.Equal(t, c.Fields[types.FieldLocation].Suggestions, p.Suggestions)

	input := m.LastInput()
	require.Len(t, input, 2)
	assert.Contains(t, input[0].Content, "Reply in English.")
	assert.Contains(t, input[1].Content, "Where are you located?")

	p, err = g.GenerateQuestion(context.Background(), &Request{Field: types.FieldSpecific, TaskType: "Tech Support"})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, 1, m.Calls())
}

func TestToolBasedQuestionGeneratorLanguageAndExchange(t *testing.T) {
	c := catalog.Default()
	m := modeltest.New(modeltest.Reply{Content: "¿Cuál es tu presupuesto?"})
	g := NewToolBasedQuestionGenerator(m, c, WithQuestionLang("Spanish"))
	assert.Equal(t, "Spanish", g.Lang)

	_, err := g.GenerateQuestion(context.Background(), &Request{
		Field:         types.FieldBudget,
		TaskType:      "Cleaning",
		State:         &types.ScopingState{TaskType: "Cleaning", Location: "Astoria"},
		LastQuestion:  "Where are you located?",
		LastUserInput: "Astoria",
	})
	require.NoError(t, err)
	input := m.LastInput()
	require.Len(t, input, 2)
	assert.Contains(t, input[0].Content, "Reply in Spanish.")
	assert.Contains(t, input[1].Content, "## Assistant Question:\nWhere are you located?")
	assert.Contains(t, input[1].Content, "## User Answer:\nAstoria")

	assert.Equal(t, "English", NewToolBasedQuestionGenerator(m, c, WithQuestionLang("")).Lang)
}

func TestFailbackQuestionGenerator(t *testing.T) {
	c := catalog.Default()
	failing := NewToolBasedQuestionGenerator(modeltest.New(modeltest.Reply{Err: errors.New("down")}), c)
	g := NewFailbackQuestionGenerator(failing, NewLocalQuestionGenerator(c))

	p, err := g.GenerateQuestion(context.Background(), &Request{Field: types.FieldTimeline, TaskType: "Cleaning"})
	require.NoError(t, err)
	assert.Equal(t, "When do you need this done?", p.Question)

	_, err = NewFailbackQuestionGenerator(failing).GenerateQuestion(context.Background(), &Request{Field: types.FieldTimeline})
	assert.Error(t, err)
}
