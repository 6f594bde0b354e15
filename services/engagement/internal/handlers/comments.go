package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-engagement/internal/platform/api"
	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/internal/platform/httpserver"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/render"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

type submitCommentRequest struct {
	Content         string  `json:"content"`
	AuthorName      string  `json:"author_name"`
	AuthorEmail     *string `json:"author_email,omitempty"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

// commentView is the wire form of a comment. Email and actor are only set
// for administrators.
type commentView struct {
	ID              string       `json:"id"`
	SubjectID       string       `json:"subject_id"`
	ParentCommentID *string      `json:"parent_comment_id,omitempty"`
	AuthorName      string       `json:"author_name"`
	AuthorEmail     *string      `json:"author_email,omitempty"`
	ActorID         *string      `json:"actor_id,omitempty"`
	Content         string       `json:"content"`
	ContentHTML     string       `json:"content_html"`
	Status          store.Status `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}

type threadView struct {
	commentView
	Replies []commentView `json:"replies"`
}

type threadResponse struct {
	SubjectID string       `json:"subject_id"`
	Comments  []threadView `json:"comments"`
}

func toView(c store.Comment, admin bool) commentView {
	v := commentView{
		ID:              c.ID,
		SubjectID:       c.SubjectID,
		ParentCommentID: c.ParentCommentID,
		AuthorName:      c.AuthorName,
		Content:         c.Content,
		ContentHTML:     render.Markdown(c.Content),
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
	}
	if admin {
		v.AuthorEmail = c.AuthorEmail
		v.ActorID = c.ActorID
	}
	return v
}

func toThread(subjectID string, nodes []engagement.ThreadNode, admin bool) threadResponse {
	resp := threadResponse{SubjectID: subjectID, Comments: make([]threadView, 0, len(nodes))}
	for _, n := range nodes {
		tv := threadView{commentView: toView(n.Comment, admin), Replies: make([]commentView, 0, len(n.Replies))}
		for _, reply := range n.Replies {
			tv.Replies = append(tv.Replies, toView(reply, admin))
		}
		resp.Comments = append(resp.Comments, tv)
	}
	return resp
}

// GetThread handles GET /v1/subjects/{subject_id}/comments (approved only)
func GetThread(mod *engagement.Moderator) http.HandlerFunc {
	return threadHandler(mod, false)
}

func threadHandler(mod *engagement.Moderator, admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectID := strings.TrimSpace(chi.URLParam(r, "subject_id"))
		if subjectID == "" {
			api.BadRequest(w, "MISSING_ID", "subject_id is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		nodes, err := mod.Thread(r.Context(), subjectID, admin)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, toThread(subjectID, nodes, admin))
	}
}

// SubmitComment handles POST /v1/subjects/{subject_id}/comments
// SubmitComment accepts a comment from anyone. Only an authenticated poster
// is recorded as the comment's actor; visitor tokens are ignored.
func SubmitComment(mod *engagement.Moderator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httpserver.RequestIDFromContext(r.Context())
		subjectID := strings.TrimSpace(chi.URLParam(r, "subject_id"))
		if subjectID == "" {
			api.BadRequest(w, "MISSING_ID", "subject_id is required", reqID, nil)
			return
		}

		var req submitCommentRequest
		if err := api.DecodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", reqID, nil)
			return
		}

		in := engagement.SubmitInput{
			SubjectID:       subjectID,
			Content:         req.Content,
			AuthorName:      render.PlainText(req.AuthorName),
			AuthorEmail:     req.AuthorEmail,
			ParentCommentID: req.ParentCommentID,
		}
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			in.ActorID = &uid
		}

		created, err := mod.Submit(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, toView(created, false))
	}
}
