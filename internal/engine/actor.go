package engine

import "context"

// Actor is the signed-in user an operation is performed for. It only feeds
// audit fields.
type Actor struct {
	UserID   uint
	Username string
	Role     string
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

func actorName(ctx context.Context) string {
	if a, ok := ActorFromContext(ctx); ok {
		return a.Username
	}
	return ""
}
