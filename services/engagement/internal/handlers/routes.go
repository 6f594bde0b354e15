package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// Deps are the engine components behind the HTTP routes.
type Deps struct {
	Reactions *engagement.Reactions
	Moderator *engagement.Moderator
	Catalog   *engagement.Catalog
	Reports   engagement.ReportSource
	Verifier  auth.JWTVerifier
	Visitors  auth.VisitorHasher
	Logger    *zap.Logger
	// WriteLimit throttles public writes; nil disables it.
	WriteLimit func(http.Handler) http.Handler
}

// Register mounts the public and admin routes on r.
func Register(r chi.Router, d Deps) {
	// Public: a bearer token is optional, a visitor id may stand in for it.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(d.Verifier))
		r.Get("/v1/subjects/{subject_id}/reactions", GetReactions(d.Reactions, d.Visitors))
		r.Get("/v1/subjects/{subject_id}/comments", GetThread(d.Moderator))

		write := r
		if d.WriteLimit != nil {
			write = r.With(d.WriteLimit)
		}
		write.Post("/v1/subjects/{subject_id}/reactions", PostReaction(d.Reactions, d.Visitors))
		write.Post("/v1/subjects/{subject_id}/comments", SubmitComment(d.Moderator))
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(auth.RequireUser(d.Verifier))
		r.Use(auth.RequireAdmin)
		r.Get("/comments", ListComments(d.Moderator))
		r.Get("/subjects/{subject_id}/comments", AdminThread(d.Moderator))
		r.Put("/subjects/{subject_id}", RegisterSubject(d.Catalog))
		r.Put("/comments/{comment_id}/status", SetCommentStatus(d.Moderator))
		r.Post("/comments/{comment_id}/approve", Transition(d.Moderator, store.StatusApproved))
		r.Post("/comments/{comment_id}/reject", Transition(d.Moderator, store.StatusRejected))
		r.Post("/comments/{comment_id}/spam", Transition(d.Moderator, store.StatusSpam))
		r.Delete("/comments/{comment_id}", DeleteComment(d.Moderator))
		r.Get("/engagement", GlobalEngagement(d.Reports, d.Logger))
	})
}
