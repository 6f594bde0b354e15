package engagement

import (
	"context"
	"errors"
	"strings"

	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// SubmitInput is a new comment as received from a visitor.
type SubmitInput struct {
	SubjectID       string
	Content         string
	AuthorName      string
	AuthorEmail     *string
	ActorID         *string
	ParentCommentID *string
}

// Moderator owns comment submission and the moderation status lifecycle.
// Any status may be set from any status.
type Moderator struct {
	comments store.CommentStore
	initial  StatusPolicy
	notify   Notifier
}

// NewModerator returns a Moderator. A nil policy means AutoApprove.
func NewModerator(cs store.CommentStore, policy StatusPolicy, n Notifier) *Moderator {
	if policy == nil {
		policy = AutoApprove
	}
	return &Moderator{comments: cs, initial: policy, notify: n}
}

func (m *Moderator) Submit(ctx context.Context, in SubmitInput) (store.Comment, error) {
	in.SubjectID = strings.TrimSpace(in.SubjectID)
	in.Content = strings.TrimSpace(in.Content)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.SubjectID == "" {
		return store.Comment{}, invalid("subject_id", ErrMissingSubject)
	}
	if in.Content == "" {
		return store.Comment{}, invalid("content", ErrEmptyContent)
	}
	if in.AuthorName == "" {
		return store.Comment{}, invalid("author_name", ErrMissingAuthor)
	}
	if in.ParentCommentID != nil && strings.TrimSpace(*in.ParentCommentID) == "" {
		in.ParentCommentID = nil
	}

	created, err := m.comments.Insert(ctx, store.Comment{
		SubjectID:       in.SubjectID,
		Content:         in.Content,
		AuthorName:      in.AuthorName,
		AuthorEmail:     in.AuthorEmail,
		ActorID:         in.ActorID,
		ParentCommentID: in.ParentCommentID,
		Status:          m.initial(in),
	})
	if err != nil {
		return store.Comment{}, storageErr("submit comment", err)
	}

	c := Change{Kind: ChangeCommentSubmitted, SubjectID: created.SubjectID, CommentID: created.ID, Detail: string(created.Status)}
	if created.ActorID != nil {
		c.ActorID = *created.ActorID
	}
	notify(ctx, m.notify, c)
	return created, nil
}

// SetStatus overwrites the moderation status of a comment.
func (m *Moderator) SetStatus(ctx context.Context, id string, status store.Status) (store.Comment, error) {
	if !status.Valid() {
		return store.Comment{}, invalid("status", ErrInvalidStatus)
	}
	updated, err := m.comments.UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return store.Comment{}, ErrNotFound
	}
	if err != nil {
		return store.Comment{}, storageErr("set status", err)
	}
	notify(ctx, m.notify, Change{
		Kind:      ChangeCommentModerated,
		SubjectID: updated.SubjectID,
		CommentID: updated.ID,
		Detail:    string(updated.Status),
	})
	return updated, nil
}

func (m *Moderator) Approve(ctx context.Context, id string) (store.Comment, error) {
	return m.SetStatus(ctx, id, store.StatusApproved)
}

func (m *Moderator) Reject(ctx context.Context, id string) (store.Comment, error) {
	return m.SetStatus(ctx, id, store.StatusRejected)
}

func (m *Moderator) MarkSpam(ctx context.Context, id string) (store.Comment, error) {
	return m.SetStatus(ctx, id, store.StatusSpam)
}

// Delete removes a comment permanently. Its replies stay stored and drop out
// of threads.
func (m *Moderator) Delete(ctx context.Context, id string) error {
	existing, err := m.comments.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("delete comment", err)
	}
	if err := m.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr("delete comment", err)
	}
	notify(ctx, m.notify, Change{Kind: ChangeCommentDeleted, SubjectID: existing.SubjectID, CommentID: id})
	return nil
}

// Thread returns the one-level thread for a subject, newest first. Public
// callers see approved comments only; includeAll shows every status.
func (m *Moderator) Thread(ctx context.Context, subjectID string, includeAll bool) ([]ThreadNode, error) {
	f := store.CommentFilter{SubjectID: subjectID}
	if !includeAll {
		f.Status = store.StatusApproved
	}
	comments, err := m.comments.List(ctx, f)
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	return Thread(BuildTree(comments)), nil
}

// List returns comments across all subjects, newest first, optionally
// restricted to one status.
func (m *Moderator) List(ctx context.Context, status store.Status) ([]store.Comment, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", ErrInvalidStatus)
	}
	comments, err := m.comments.List(ctx, store.CommentFilter{Status: status})
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	return comments, nil
}
