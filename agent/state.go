package agent

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// StateReadWriter stores conversation state, routed by the key in the context.
type StateReadWriter interface {
	InitState(ctx context.Context) *State
	Remove(ctx context.Context) error
	Read(ctx context.Context) (*State, error)
	Write(ctx context.Context, state *State) error
}

type stateKeyContext struct{}

const defaultStateKey = "default"

// WithStateKey sets the conversation key in the context.
func WithStateKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, stateKeyContext{}, key)
}

// StateKeyFromContext gets the conversation key from the context.
func StateKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(stateKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok
}

// conversationKey is the key set with WithStateKey, or "default" when none is.
func conversationKey(ctx context.Context) string {
	if key, ok := StateKeyFromContext(ctx); ok && key != "" {
		return key
	}
	return defaultStateKey
}

// CacheStateReadWriter keeps each state as a JSON snapshot, so callers never
// share a *State with the store.
type CacheStateReadWriter struct {
	store      KeyedStore[string]
	customInit func(ctx context.Context) *State
}

func NewCacheStateReadWriter(core Cache[string], customInit func(ctx context.Context) *State) *CacheStateReadWriter {
	return &CacheStateReadWriter{
		store:      NewKeyedStore(core, "agent:state"),
		customInit: customInit,
	}
}

func NewMemoryStateReadWriter(customInit func(ctx context.Context) *State) *CacheStateReadWriter {
	return NewCacheStateReadWriter(NewMemoryCache[string](), customInit)
}

func (m *CacheStateReadWriter) InitState(ctx context.Context) *State {
	if m.customInit != nil {
		if state := m.customInit(ctx); state != nil {
			return state
		}
	}
	return NewState()
}

func (m *CacheStateReadWriter) Read(ctx context.Context) (*State, error) {
	raw, ok, err := m.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return m.InitState(ctx), nil
	}
	var state State
	if err := sonic.UnmarshalString(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return &state, nil
}

func (m *CacheStateReadWriter) Write(ctx context.Context, state *State) error {
	if state == nil {
		return m.Remove(ctx)
	}
	raw, err := sonic.MarshalString(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}
	return m.store.Set(ctx, raw)
}

func (m *CacheStateReadWriter) Remove(ctx context.Context) error {
	return m.store.Del(ctx)
}

var _ StateReadWriter = (*CacheStateReadWriter)(nil)
