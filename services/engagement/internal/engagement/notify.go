package engagement

import (
	"context"

	"github.com/example/blog-engagement/internal/platform/events"
)

// ChangeKind names a successful mutation.
type ChangeKind string

const (
	ChangeReaction          ChangeKind = "reaction.changed"
	ChangeCommentSubmitted  ChangeKind = "comment.submitted"
	ChangeCommentModerated  ChangeKind = "comment.moderated"
	ChangeCommentDeleted    ChangeKind = "comment.deleted"
	ChangeSubjectRegistered ChangeKind = "subject.registered"
)

// Change describes a mutation after it was persisted.
type Change struct {
	Kind      ChangeKind
	SubjectID string
	CommentID string
	ActorID   string
	// Detail is the reaction action or the new comment status.
	Detail string
}

// Notifier is told about every successful mutation. Implementations must not
// block for long; errors are theirs to handle.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change)

func (f NotifierFunc) Notify(ctx context.Context, c Change) { f(ctx, c) }

// Notifiers fans a change out to several notifiers in order. Nil entries are skipped.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, c Change) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, c)
		}
	}
}

func notify(ctx context.Context, n Notifier, c Change) {
	if n != nil {
		n.Notify(ctx, c)
	}
}

var eventSubjects = map[ChangeKind]string{
	ChangeReaction:          events.SubjectReactionChanged,
	ChangeCommentSubmitted:  events.SubjectCommentSubmitted,
	ChangeCommentModerated:  events.SubjectCommentModerated,
	ChangeCommentDeleted:    events.SubjectCommentDeleted,
	ChangeSubjectRegistered: events.SubjectSubjectRegistered,
}

// EventNotifier publishes changes to JetStream so other instances can drop
// their cached rollups.
type EventNotifier struct {
	Publisher *events.Publisher
}

func (e EventNotifier) Notify(_ context.Context, c Change) {
	subject, ok := eventSubjects[c.Kind]
	if !ok {
		return
	}
	props := map[string]any{"subject_id": c.SubjectID}
	if c.CommentID != "" {
		props["comment_id"] = c.CommentID
	}
	if c.Detail != "" {
		props["detail"] = c.Detail
	}
	e.Publisher.Publish(subject, string(c.Kind), c.ActorID, props)
}
