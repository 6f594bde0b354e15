package handlers

import (
	"net/http"

	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

// actorFromRequest resolves the caller. An authenticated user wins over a
// visitor token; ok is false when neither is present.
func actorFromRequest(r *http.Request, visitors auth.VisitorHasher) (engagement.Actor, bool) {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		return engagement.Actor{ID: uid}, true
	}
	if id := visitors.FromRequest(r); id != "" {
		return engagement.Actor{ID: id, Anonymous: true}, true
	}
	return engagement.Actor{}, false
}
