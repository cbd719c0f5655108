package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/towncal/internal/submission"
)

func resolveActor(t *testing.T, headers map[string]string) submission.Actor {
	t.Helper()

	var actor submission.Actor
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return actor
}

func TestMiddlewareAnonymous(t *testing.T) {
	actor := resolveActor(t, nil)
	assert.True(t, actor.Anonymous)
	assert.False(t, actor.Moderator)
}

func TestMiddlewareAuthenticatedUser(t *testing.T) {
	actor := resolveActor(t, map[string]string{"X-Forwarded-User": "42"})
	assert.False(t, actor.Anonymous)
	assert.Equal(t, int64(42), actor.ID)
	assert.False(t, actor.Moderator)
}

func TestMiddlewareModeratorRole(t *testing.T) {
	actor := resolveActor(t, map[string]string{
		"X-Forwarded-User":  "7",
		"X-Forwarded-Roles": "editor, Moderator",
	})
	assert.Equal(t, int64(7), actor.ID)
	assert.True(t, actor.Moderator)
}

func TestMiddlewareBadUserHeaderIsAnonymous(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "0", " "} {
		actor := resolveActor(t, map[string]string{
			"X-Forwarded-User":  raw,
			"X-Forwarded-Roles": "moderator",
		})
		assert.True(t, actor.Anonymous, "raw=%q", raw)
		assert.False(t, actor.Moderator, "roles on an anonymous request are ignored")
	}
}

func TestActorFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	actor := ActorFromContext(req.Context())
	assert.True(t, actor.Anonymous)
}
