package middleware

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const actorContextKey contextKey = "actor"

// ActorHeader carries the acting user's ID, set by the upstream authentication gate.
const ActorHeader = "X-Actor-ID"

// Actor returns middleware that reads ActorHeader into the request context.
// Requests under /api/ without an actor are rejected with 401; other paths pass through.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ActorHeader))
		if id == "" {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"actor_required","message":"missing ` + ActorHeader + ` header"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), id)))
	})
}

// ActorFromContext returns the acting user's ID.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorContextKey).(string)
	return id, ok && id != ""
}

// ContextWithActor returns a context carrying the given actor.
// Intended for use in tests.
func ContextWithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorContextKey, id)
}
