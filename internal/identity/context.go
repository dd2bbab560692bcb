package identity

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting identity in context.
func ContextWithActor(ctx context.Context, actor *Identity) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting identity from context. Returns nil for
// anonymous requests.
func ActorFromContext(ctx context.Context) *Identity {
	actor, _ := ctx.Value(actorContextKey{}).(*Identity)
	return actor
}
