package agent

import (
	"context"
)

// KeyedStore scopes a Cache to a namespace and takes the conversation key from
// the context.
type KeyedStore[S any] struct {
	core      Cache[S]
	namespace string
}

func NewKeyedStore[S any](core Cache[S], namespace string) KeyedStore[S] {
	return KeyedStore[S]{
		core:      core,
		namespace: namespace,
	}
}

func (c KeyedStore[S]) key(ctx context.Context) string {
	return c.namespace + ":" + conversationKey(ctx)
}

func (c KeyedStore[S]) Set(ctx context.Context, val S) error {
	return c.core.Set(ctx, c.key(ctx), val)
}

func (c KeyedStore[S]) Get(ctx context.Context) (S, bool, error) {
	return c.core.Get(ctx, c.key(ctx))
}

func (c KeyedStore[S]) Del(ctx context.Context) error {
	return c.core.Del(ctx, c.key(ctx))
}
