package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/towncal/internal/submission"
)

// Identity arrives from the reverse proxy in front of the service:
// X-Forwarded-User carries the numeric user id and X-Forwarded-Roles a
// comma-separated role list. Absent or unparseable headers mean anonymous.
const (
	headerUser  = "X-Forwarded-User"
	headerRoles = "X-Forwarded-Roles"

	roleModerator = "moderator"
)

// Middleware resolves the request identity headers into an actor and stores
// it on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorFromHeaders(r))))
	})
}

func actorFromHeaders(r *http.Request) submission.Actor {
	raw := strings.TrimSpace(r.Header.Get(headerUser))
	if raw == "" {
		return submission.Actor{Anonymous: true}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return submission.Actor{Anonymous: true}
	}

	actor := submission.Actor{ID: id}
	for _, role := range strings.Split(r.Header.Get(headerRoles), ",") {
		if strings.EqualFold(strings.TrimSpace(role), roleModerator) {
			actor.Moderator = true
			break
		}
	}
	return actor
}
