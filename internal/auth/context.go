package auth

import (
	"context"

	"github.com/example/towncal/internal/submission"
)

type contextKey string

const contextKeyActor contextKey = "actor"

func WithActor(ctx context.Context, actor submission.Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// ActorFromContext returns the request actor. Requests that carried no
// identity headers resolve to the anonymous actor.
func ActorFromContext(ctx context.Context) submission.Actor {
	if a, ok := ctx.Value(contextKeyActor).(submission.Actor); ok {
		return a
	}
	return submission.Actor{Anonymous: true}
}
