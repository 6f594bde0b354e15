// Package store persists reactions, comments and the subject catalog.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation, e.g. a second reaction
	// inserted for the same (subject, actor) pair.
	ErrConflict = errors.New("conflict")
	// ErrStale reports a guarded write that matched no row because the row
	// changed or vanished since it was read.
	ErrStale = errors.New("stale write")
)

// Reaction is one actor's like or dislike on one subject.
type Reaction struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subject_id"`
	ActorID    string    `json:"actor_id"`
	IsPositive bool      `json:"is_positive"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Status is the moderation state of a comment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSpam     Status = "spam"
)

// Valid reports whether s is one of the four moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSpam:
		return true
	}
	return false
}

// Comment is a single comment row. Only Status changes after creation.
type Comment struct {
	ID              string    `json:"id"`
	SubjectID       string    `json:"subject_id"`
	Content         string    `json:"content"`
	AuthorName      string    `json:"author_name"`
	AuthorEmail     *string   `json:"author_email,omitempty"`
	ActorID         *string   `json:"actor_id,omitempty"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// CommentFilter narrows List and Count. Empty fields match everything.
type CommentFilter struct {
	SubjectID string
	Status    Status
}

// Subject is a known blog post.
type Subject struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionStore defines the contract for reaction persistence.
type ReactionStore interface {
	// Get returns ErrNotFound when the actor has not reacted to the subject.
	Get(ctx context.Context, subjectID, actorID string) (Reaction, error)
	// Insert returns ErrConflict when a reaction for the pair already exists.
	Insert(ctx context.Context, r Reaction) (Reaction, error)
	// UpdateSentiment flips a reaction only if it still holds from.
	UpdateSentiment(ctx context.Context, id string, from, to bool) (Reaction, error)
	// DeleteIfSentiment removes a reaction only if it still holds isPositive.
	DeleteIfSentiment(ctx context.Context, id string, isPositive bool) error
	ListBySubject(ctx context.Context, subjectID string) ([]Reaction, error)
	// ListAll returns every reaction ordered by creation.
	ListAll(ctx context.Context) ([]Reaction, error)
}

// CommentStore defines the contract for comment persistence.
type CommentStore interface {
	Insert(ctx context.Context, c Comment) (Comment, error)
	Get(ctx context.Context, id string) (Comment, error)
	// List returns matching comments, newest first.
	List(ctx context.Context, f CommentFilter) ([]Comment, error)
	Count(ctx context.Context, f CommentFilter) (int, error)
	UpdateStatus(ctx context.Context, id string, s Status) (Comment, error)
	Delete(ctx context.Context, id string) error
}

// SubjectStore defines the contract for the subject catalog.
type SubjectStore interface {
	// Upsert registers a subject or updates its title and slug. The first
	// registration time is kept.
	Upsert(ctx context.Context, s Subject) (Subject, error)
	// List returns subjects in registration order.
	List(ctx context.Context) ([]Subject, error)
}
