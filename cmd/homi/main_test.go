package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/homi/auth"
	"github.com/tbxark/homi/config"
	"github.com/tbxark/homi/internal/modeltest"
	"github.com/tbxark/homi/store"
	"github.com/tbxark/homi/types"
)

const derivedJSON = `{"skills":["deep cleaning"],"duration":"3 hours","suggestedPrice":120,"description":"Deep clean of an apartment in Astoria."}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	conf := config.Default()
	conf.Dialogue.ThinkDelay = 0
	conf.Storage.Driver = config.StorageMemory
	return conf
}

func TestRunChatToCompletion(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(modeltest.ToolCall("complete_request", derivedJSON))
	a, err := newApp(ctx, testConfig(t), m)
	require.NoError(t, err)
	defer a.Close()

	provider := auth.NewLocalProvider()
	user, err := provider.Login(ctx, "dana@example.com")
	require.NoError(t, err)

	in := strings.NewReader("Need a deep clean in Astoria this weekend, $120\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, runChat(ctx, a.agent, provider, in, &out))

	text := out.String()
	assert.Contains(t, text, "Hi! What do you need help with today?")
	assert.Contains(t, text, "Cleaning in Astoria")
	assert.Contains(t, text, "$120.00")
	assert.Equal(t, 1, m.Calls())

	saved, err := a.requests.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Cleaning", saved[0].TaskType)
}

func TestRunChatPicksSuggestionByNumber(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t), modeltest.New(modeltest.ToolCall("complete_request", derivedJSON)))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runChat(ctx, a.agent, auth.NewLocalProvider(), strings.NewReader("1\n"), &out))
	assert.Contains(t, out.String(), "What's your budget for this?")
}

func TestResolveSuggestion(t *testing.T) {
	suggestions := []string{"a", "b"}
	assert.Equal(t, "b", resolveSuggestion("2", suggestions))
	assert.Equal(t, "3", resolveSuggestion("3", suggestions))
	assert.Equal(t, "hello", resolveSuggestion("hello", suggestions))
}

func TestNewAppRejectsMissingCatalog(t *testing.T) {
	conf := testConfig(t)
	conf.Dialogue.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := newApp(context.Background(), conf, modeltest.New())
	assert.Error(t, err)
}

func TestNewAppToolMode(t *testing.T) {
	conf := testConfig(t)
	conf.Dialogue.Mode = config.ModeTool
	a, err := newApp(context.Background(), conf, modeltest.New())
	require.NoError(t, err)
	assert.NotNil(t, a.agent)
}

func TestRequestsListCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "homi.db")
	user, err := auth.UserForEmail("dana@example.com")
	require.NoError(t, err)

	s, err := store.NewSQLiteRequestStore(dbPath)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, s.Create(context.Background(), &types.CompletedRequest{
		ID: "req-42", UserID: user.ID, Skills: []string{"cleaning"}, Duration: "2 hours",
		SuggestedPrice: 80, Description: "Clean", TaskType: "Cleaning", Location: "Astoria",
		Status: types.StatusPending, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.Close())

	confPath := filepath.Join(dir, "homi.yaml")
	require.NoError(t, os.WriteFile(confPath, []byte("storage:\n  driver: sqlite\n  path: "+dbPath+"\nlog:\n  level: error\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", confPath, "requests", "list", "--email", "dana@example.com"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "req-42")
	assert.Contains(t, out.String(), "Astoria")

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", confPath, "requests", "status", "req-42", "booked"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "booked")

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", confPath, "requests", "status", "req-42", "pending"})
	assert.Error(t, cmd.Execute())
}
