package store

import (
	"context"
	"errors"
	"testing"
)

var (
	_ ReactionStore = (*InMemoryReactionStore)(nil)
	_ ReactionStore = (*PostgresReactionStore)(nil)
	_ CommentStore  = (*InMemoryCommentStore)(nil)
	_ CommentStore  = (*PostgresCommentStore)(nil)
	_ SubjectStore  = (*InMemorySubjectStore)(nil)
	_ SubjectStore  = (*PostgresSubjectStore)(nil)
)

func strp(s string) *string { return &s }

// testReactionStore exercises the ReactionStore contract. Shared by the
// in-memory tests and the Postgres integration test.
func testReactionStore(t *testing.T, s ReactionStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "post-1", "user-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	r, err := s.Insert(ctx, Reaction{SubjectID: "post-1", ActorID: "user-a", IsPositive: true})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", r)
	}

	if _, err := s.Insert(ctx, Reaction{SubjectID: "post-1", ActorID: "user-a", IsPositive: false}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate pair, got %v", err)
	}

	// Guarded update only applies while the stored sentiment matches.
	if _, err := s.UpdateSentiment(ctx, r.ID, false, true); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale for mismatched sentiment, got %v", err)
	}
	flipped, err := s.UpdateSentiment(ctx, r.ID, true, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if flipped.IsPositive || flipped.ID != r.ID {
		t.Fatalf("expected same row flipped to dislike, got %+v", flipped)
	}

	if err := s.DeleteIfSentiment(ctx, r.ID, true); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale deleting with wrong sentiment, got %v", err)
	}

	_, _ = s.Insert(ctx, Reaction{SubjectID: "post-2", ActorID: "user-a", IsPositive: true})
	_, _ = s.Insert(ctx, Reaction{SubjectID: "post-1", ActorID: "user-b", IsPositive: true})

	bySubject, err := s.ListBySubject(ctx, "post-1")
	if err != nil {
		t.Fatalf("list by subject: %v", err)
	}
	if len(bySubject) != 2 {
		t.Fatalf("expected 2 reactions on post-1, got %d", len(bySubject))
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reactions, got %d", len(all))
	}
	if all[0].ID != r.ID || all[1].SubjectID != "post-2" {
		t.Fatalf("expected creation order, got %+v", all)
	}

	if err := s.DeleteIfSentiment(ctx, r.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "post-1", "user-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteIfSentiment(ctx, r.ID, false); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale for vanished row, got %v", err)
	}
	// The pair is free again.
	if _, err := s.Insert(ctx, Reaction{SubjectID: "post-1", ActorID: "user-a", IsPositive: false}); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
}

func testCommentStore(t *testing.T, s CommentStore) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Insert(ctx, Comment{
		SubjectID:   "post-1",
		Content:     "first",
		AuthorName:  "Ann",
		AuthorEmail: strp("ann@example.com"),
		Status:      StatusApproved,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", first)
	}
	second, _ := s.Insert(ctx, Comment{
		SubjectID:       "post-1",
		Content:         "reply",
		AuthorName:      "Bob",
		ActorID:         strp("user-b"),
		ParentCommentID: strp(first.ID),
		Status:          StatusPending,
	})
	_, _ = s.Insert(ctx, Comment{SubjectID: "post-2", Content: "elsewhere", AuthorName: "Cy", Status: StatusPending})

	got, err := s.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ParentCommentID == nil || *got.ParentCommentID != first.ID || got.ActorID == nil {
		t.Fatalf("optional fields not round-tripped: %+v", got)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := s.List(ctx, CommentFilter{SubjectID: "post-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first for post-1, got %+v", list)
	}

	pending, _ := s.List(ctx, CommentFilter{Status: StatusPending})
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending across subjects, got %d", len(pending))
	}

	total, _ := s.Count(ctx, CommentFilter{})
	nPending, _ := s.Count(ctx, CommentFilter{Status: StatusPending})
	if total != 3 || nPending != 2 {
		t.Fatalf("unexpected counts total=%d pending=%d", total, nPending)
	}

	updated, err := s.UpdateStatus(ctx, second.ID, StatusSpam)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != StatusSpam || updated.Content != "reply" {
		t.Fatalf("unexpected updated comment: %+v", updated)
	}
	if _, err := s.UpdateStatus(ctx, "missing", StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	// Orphaned reply stays in storage.
	if _, err := s.Get(ctx, second.ID); err != nil {
		t.Fatalf("reply should survive parent deletion: %v", err)
	}
}

func testSubjectStore(t *testing.T, s SubjectStore) {
	t.Helper()
	ctx := context.Background()

	a, err := s.Upsert(ctx, Subject{ID: "post-a", Title: "A", Slug: "a"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_, _ = s.Upsert(ctx, Subject{ID: "post-b", Title: "B", Slug: "b"})
	renamed, err := s.Upsert(ctx, Subject{ID: "post-a", Title: "A2", Slug: "a2"})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if !renamed.CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("registration time must be kept, got %v want %v", renamed.CreatedAt, a.CreatedAt)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "post-a" || list[0].Title != "A2" || list[1].ID != "post-b" {
		t.Fatalf("unexpected catalog: %+v", list)
	}
}

func TestInMemoryReactionStore(t *testing.T) { testReactionStore(t, NewInMemoryReactionStore()) }
func TestInMemoryCommentStore(t *testing.T)  { testCommentStore(t, NewInMemoryCommentStore()) }
func TestInMemorySubjectStore(t *testing.T)  { testSubjectStore(t, NewInMemorySubjectStore()) }

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusSpam} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "Approved", "deleted"} {
		if s.Valid() {
			t.Fatalf("%q should be invalid", s)
		}
	}
}

func TestCommentFilterWhere(t *testing.T) {
	tests := []struct {
		f     CommentFilter
		where string
		args  int
	}{
		{CommentFilter{}, "", 0},
		{CommentFilter{SubjectID: "p"}, " WHERE subject_id = $1", 1},
		{CommentFilter{Status: StatusSpam}, " WHERE status = $1", 1},
		{CommentFilter{SubjectID: "p", Status: StatusSpam}, " WHERE subject_id = $1 AND status = $2", 2},
	}
	for _, tt := range tests {
		where, args := tt.f.where()
		if where != tt.where || len(args) != tt.args {
			t.Fatalf("where(%+v) = %q %v", tt.f, where, args)
		}
	}
}
