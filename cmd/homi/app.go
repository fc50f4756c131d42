package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/catalog"
	"github.com/tbxark/homi/config"
	"github.com/tbxark/homi/finalize"
	"github.com/tbxark/homi/store"
)

// app holds everything a command needs to run conversations.
type app struct {
	conf     *config.Config
	catalog  *catalog.Catalog
	requests store.RequestStore
	agent    *agent.Agent
}

func (a *app) Close() error {
	if c, ok := a.requests.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeStore(requests store.RequestStore) {
	if c, ok := requests.(io.Closer); ok {
		_ = c.Close()
	}
}

func openRequestStore(conf *config.Config) (store.RequestStore, error) {
	switch conf.Storage.Driver {
	case config.StorageMemory:
		return store.NewMemoryRequestStore(), nil
	case config.StorageSQLite:
		return store.NewSQLiteRequestStore(conf.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

func loadCatalog(conf *config.Config) (*catalog.Catalog, error) {
	if conf.Dialogue.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(conf.Dialogue.CatalogPath)
}

func newChatModel(ctx context.Context, conf *config.Config) (model.ToolCallingChatModel, error) {
	if err := conf.RequireModel(); err != nil {
		return nil, err
	}
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.Model.APIKey,
		Model:   conf.Model.Model,
		BaseURL: conf.Model.BaseURL,
	})
}

func newApp(ctx context.Context, conf *config.Config, chatModel model.ToolCallingChatModel, agentOpts ...agent.AgentOption) (*app, error) {
	c, err := loadCatalog(conf)
	if err != nil {
		return nil, err
	}
	requests, err := openRequestStore(conf)
	if err != nil {
		return nil, err
	}
	flow, err := newFlow(conf, c, chatModel, requests)
	if err != nil {
		if closer, ok := requests.(io.Closer); ok {
			err = errors.Join(err, closer.Close())
		}
		return nil, err
	}
	history := agent.NewHistoryStore(
		agent.NewMemoryCache[[]*schema.Message](),
		agent.KeepSystemLastNTrimmer{N: conf.Dialogue.HistoryLimit},
	)
	opts := append([]agent.AgentOption{agent.WithHistoryStore(history)}, agentOpts...)
	return &app{
		conf:     conf,
		catalog:  c,
		requests: requests,
		agent:    agent.NewAgent("Homi", "Scopes local service requests through a short conversation", flow, opts...),
	}, nil
}

func newFlow(conf *config.Config, c *catalog.Catalog, chatModel model.ToolCallingChatModel, requests store.RequestStore) (*agent.ScopingFlow, error) {
	flowOpts := []agent.FlowOption{agent.WithThinkDelay(conf.Dialogue.ThinkDelay)}
	if conf.Dialogue.Mode == config.ModeTool {
		return agent.NewToolBasedScopingFlow(c, chatModel, requests, conf.Dialogue.Language, flowOpts...)
	}
	stateSchema, err := agent.NewCatalogSpec(c).JsonSchema()
	if err != nil {
		return nil, err
	}
	finalizer, err := finalize.NewToolBasedFinalizer(chatModel, stateSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create finalizer: %w", err)
	}
	return agent.NewLocalScopingFlow(c, finalizer, requests, flowOpts...)
}
