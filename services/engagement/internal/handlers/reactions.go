package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-engagement/internal/platform/api"
	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/internal/platform/httpserver"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
)

type reactRequest struct {
	Reaction string `json:"reaction"`
}

type reactResponse struct {
	Action engagement.Action `json:"action"`
	Stats  engagement.Stats  `json:"stats"`
}

// GetReactions handles GET /v1/subjects/{subject_id}/reactions
func GetReactions(rx *engagement.Reactions, visitors auth.VisitorHasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())
		subjectID := strings.TrimSpace(chi.URLParam(r, "subject_id"))
		if subjectID == "" {
			api.BadRequest(w, "MISSING_ID", "subject_id is required", reqID, nil)
			return
		}

		var caller *engagement.Actor
		if a, ok := actorFromRequest(r, visitors); ok {
			caller = &a
		}
		st, err := rx.Stats(r.Context(), subjectID, caller)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, st)
	}
}

// PostReaction handles POST /v1/subjects/{subject_id}/reactions
func PostReaction(rx *engagement.Reactions, visitors auth.VisitorHasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())
		subjectID := strings.TrimSpace(chi.URLParam(r, "subject_id"))
		if subjectID == "" {
			api.BadRequest(w, "MISSING_ID", "subject_id is required", reqID, nil)
			return
		}

		var req reactRequest
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", reqID, nil)
			return
		}
		var positive bool
		switch strings.ToLower(strings.TrimSpace(req.Reaction)) {
		case engagement.CallerLike:
			positive = true
		case engagement.CallerDislike:
			positive = false
		default:
			api.BadRequest(w, "INVALID_REACTION", "reaction must be like or dislike", reqID, nil)
			return
		}

		actor, _ := actorFromRequest(r, visitors)
		out, err := rx.React(r.Context(), subjectID, actor, positive)
		if err != nil {
			writeError(w, r, err)
			return
		}
		st, err := rx.Stats(r.Context(), subjectID, &actor)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, reactResponse{Action: out.Action, Stats: st})
	}
}
