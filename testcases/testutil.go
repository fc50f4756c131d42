// Package testcases runs whole conversations against a live chat model.
package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/config"
	"github.com/tbxark/homi/store"
)

// InitChatModel skips the test unless HOMI_RUN_LIVE_TESTS=1 and a model is
// configured through HOMI_CONFIG or the HOMI_* environment.
func InitChatModel(t *testing.T) *openai.ChatModel {
	t.Helper()
	if os.Getenv("HOMI_RUN_LIVE_TESTS") != "1" {
		t.Skip("set HOMI_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}
	conf, err := config.Load(os.Getenv("HOMI_CONFIG"))
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if err := conf.RequireModel(); err != nil {
		t.Skip(err.Error())
		return nil
	}
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  conf.Model.APIKey,
		Model:   conf.Model.Model,
		BaseURL: conf.Model.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// NewTestAgent builds a model backed agent over an in-memory request store.
func NewTestAgent(t *testing.T, opts ...agent.AgentOption) (*agent.Agent, *store.MemoryRequestStore) {
	t.Helper()
	chatModel := InitChatModel(t)
	requests := store.NewMemoryRequestStore()
	flow, err := agent.NewToolBasedScopingFlow(catalog.Default(), chatModel, requests, "")
	if err != nil {
		t.Fatalf("failed to create flow: %v", err)
	}
	return agent.NewAgent("Homi", "Scopes local service requests", flow, opts...), requests
}
