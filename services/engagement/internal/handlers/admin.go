package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/blog-engagement/internal/platform/api"
	"github.com/example/blog-engagement/internal/platform/httpserver"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

type statusRequest struct {
	Status string `json:"status"`
}

type subjectRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type commentListResponse struct {
	Comments []commentView `json:"comments"`
}

// ListComments handles GET /v1/admin/comments?status=
func ListComments(mod *engagement.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := store.Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
		comments, err := mod.List(r.Context(), status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp := commentListResponse{Comments: make([]commentView, 0, len(comments))}
		for _, c := range comments {
			resp.Comments = append(resp.Comments, toView(c, true))
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// AdminThread handles GET /v1/admin/subjects/{subject_id}/comments (every status)
func AdminThread(mod *engagement.Moderator) http.HandlerFunc {
	return threadHandler(mod, true)
}

func commentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "comment_id"))
	if id == "" {
		api.BadRequest(w, "MISSING_ID", "comment_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
		return "", false
	}
	return id, true
}

// SetCommentStatus handles PUT /v1/admin/comments/{comment_id}/status
func SetCommentStatus(mod *engagement.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := commentID(w, r)
		if !ok {
			return
		}
		var req statusRequest
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		status := store.Status(strings.ToLower(strings.TrimSpace(req.Status)))
		updated, err := mod.SetStatus(r.Context(), id, status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, toView(updated, true))
	}
}

// Transition handles POST /v1/admin/comments/{comment_id}/{approve,reject,spam}
func Transition(mod *engagement.Moderator, status store.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := commentID(w, r)
		if !ok {
			return
		}
		updated, err := mod.SetStatus(r.Context(), id, status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, toView(updated, true))
	}
}

// DeleteComment handles DELETE /v1/admin/comments/{comment_id}
func DeleteComment(mod *engagement.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := commentID(w, r)
		if !ok {
			return
		}
		if err := mod.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RegisterSubject handles PUT /v1/admin/subjects/{subject_id}
func RegisterSubject(cat *engagement.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subjectRequest
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		saved, err := cat.Register(r.Context(), store.Subject{
			ID:    chi.URLParam(r, "subject_id"),
			Title: req.Title,
			Slug:  req.Slug,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, saved)
	}
}

// GlobalEngagement handles GET /v1/admin/engagement. A failed rollup is still
// rendered as a zeroed report with available=false.
func GlobalEngagement(src engagement.ReportSource, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := src.GlobalEngagement(r.Context())
		if err != nil {
			httpserver.Logger(r.Context(), log).Warn("engagement report unavailable", zap.Error(err))
		}
		api.WriteJSON(w, http.StatusOK, rep)
	}
}
