package engagement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/blog-engagement/services/engagement/internal/store"
)

type fixture struct {
	reactions *store.InMemoryReactionStore
	comments  *store.InMemoryCommentStore
	subjects  *store.InMemorySubjectStore
	react     *Reactions
	mod       *Moderator
	catalog   *Catalog
	reporter  *Reporter
}

func newFixture() *fixture {
	f := &fixture{
		reactions: store.NewInMemoryReactionStore(),
		comments:  store.NewInMemoryCommentStore(),
		subjects:  store.NewInMemorySubjectStore(),
	}
	f.react = NewReactions(f.reactions, ReactionPolicy{}, nil)
	f.mod = NewModerator(f.comments, HoldForReview, nil)
	f.catalog = NewCatalog(f.subjects, nil)
	f.reporter = NewReporter(f.reactions, f.comments, f.subjects)
	return f
}

func (f *fixture) like(t *testing.T, subject, actor string, positive bool) {
	t.Helper()
	if _, err := f.react.React(context.Background(), subject, Actor{ID: actor}, positive); err != nil {
		t.Fatalf("react: %v", err)
	}
}

func TestGlobalEngagement_Totals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.catalog.Register(ctx, store.Subject{ID: "post-a", Title: "A"})
	_, _ = f.catalog.Register(ctx, store.Subject{ID: "post-b", Title: "B"})

	f.like(t, "post-a", "u1", true)
	f.like(t, "post-a", "u2", true)
	f.like(t, "post-b", "u1", false)
	f.like(t, "post-c", "u3", true)

	c1, _ := f.mod.Submit(ctx, SubmitInput{SubjectID: "post-a", Content: "x", AuthorName: "Ann"})
	_, _ = f.mod.Submit(ctx, SubmitInput{SubjectID: "post-a", Content: "y", AuthorName: "Bob"})
	_, _ = f.mod.Approve(ctx, c1.ID)

	rep, err := f.reporter.GlobalEngagement(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !rep.Available || rep.GeneratedAt.IsZero() {
		t.Fatalf("expected available report, got %+v", rep)
	}
	if rep.TotalLikes != 3 || rep.TotalDislikes != 1 {
		t.Fatalf("unexpected reaction totals %+v", rep)
	}
	if rep.TotalComments != 2 || rep.PendingComments != 1 {
		t.Fatalf("unexpected comment totals %+v", rep)
	}

	want := []SubjectScore{
		{SubjectID: "post-a", Title: "A", Likes: 2, NetScore: 2},
		{SubjectID: "post-c", Likes: 1, NetScore: 1},
		{SubjectID: "post-b", Title: "B", Dislikes: 1, NetScore: -1},
	}
	if len(rep.TopLikedSubjects) != len(want) {
		t.Fatalf("unexpected ranking %+v", rep.TopLikedSubjects)
	}
	for i := range want {
		if rep.TopLikedSubjects[i] != want[i] {
			t.Fatalf("rank %d: got %+v want %+v", i, rep.TopLikedSubjects[i], want[i])
		}
	}

	if len(rep.TopReactingActors) != 3 || rep.TopReactingActors[0] != (ActorCount{ActorID: "u1", Likes: 1}) {
		t.Fatalf("unexpected actors %+v", rep.TopReactingActors)
	}
}

func TestGlobalEngagement_StableTies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	// Registered subjects with no reactions tie at zero and keep catalog order.
	for _, id := range []string{"p1", "p2", "p3"} {
		_, _ = f.catalog.Register(ctx, store.Subject{ID: id})
	}
	f.like(t, "p9", "u1", true)
	f.like(t, "p9", "u2", false)

	rep, err := f.reporter.GlobalEngagement(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	got := make([]string, len(rep.TopLikedSubjects))
	for i, s := range rep.TopLikedSubjects {
		got[i] = s.SubjectID
	}
	if !equal(got, []string{"p1", "p2", "p3", "p9"}) {
		t.Fatalf("expected catalog order then reaction-only subjects, got %v", got)
	}
}

func TestGlobalEngagement_Bounded(t *testing.T) {
	f := newFixture()
	// 8 subjects with scores 1..8 and 7 actors with 1..7 likes.
	for i := 1; i <= 8; i++ {
		for j := 0; j < i; j++ {
			f.like(t, fmt.Sprintf("post-%d", i), fmt.Sprintf("voter-%d-%d", i, j), true)
		}
	}
	for i := 1; i <= 7; i++ {
		for j := 0; j < i; j++ {
			f.like(t, fmt.Sprintf("extra-%d", j), fmt.Sprintf("fan-%d", i), true)
		}
	}

	rep, err := f.reporter.GlobalEngagement(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.TopLikedSubjects) != topN || len(rep.TopReactingActors) != topN {
		t.Fatalf("ranked lists must hold %d entries, got %d and %d", topN, len(rep.TopLikedSubjects), len(rep.TopReactingActors))
	}
	if rep.TopLikedSubjects[0].SubjectID != "post-8" {
		t.Fatalf("expected post-8 first, got %+v", rep.TopLikedSubjects[0])
	}
	for i := 1; i < topN; i++ {
		if rep.TopLikedSubjects[i].NetScore > rep.TopLikedSubjects[i-1].NetScore {
			t.Fatalf("subject ranking must be non-increasing: %+v", rep.TopLikedSubjects)
		}
		if rep.TopReactingActors[i].Likes > rep.TopReactingActors[i-1].Likes {
			t.Fatalf("actor ranking must be non-increasing: %+v", rep.TopReactingActors)
		}
	}
	if rep.TopReactingActors[0] != (ActorCount{ActorID: "fan-7", Likes: 7}) {
		t.Fatalf("expected fan-7 first, got %+v", rep.TopReactingActors[0])
	}
}

func TestGlobalEngagement_Empty(t *testing.T) {
	rep, err := newFixture().reporter.GlobalEngagement(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !rep.Available || rep.TotalLikes != 0 || rep.TopLikedSubjects == nil || rep.TopReactingActors == nil {
		t.Fatalf("expected available empty report with non-nil lists, got %+v", rep)
	}
}

type brokenCommentStore struct{ store.CommentStore }

func (brokenCommentStore) Count(context.Context, store.CommentFilter) (int, error) {
	return 0, errDown
}

func TestGlobalEngagement_FailureIsZeroed(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := map[string]*Reporter{
		"reactions": NewReporter(brokenReactionStore{}, store.NewInMemoryCommentStore(), store.NewInMemorySubjectStore()),
		"comments":  NewReporter(store.NewInMemoryReactionStore(), brokenCommentStore{}, store.NewInMemorySubjectStore()),
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			r.now = func() time.Time { return fixed }
			rep, err := r.GlobalEngagement(context.Background())
			var se *StorageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StorageError, got %v", err)
			}
			if rep.Available || rep.TotalLikes != 0 || rep.TotalComments != 0 {
				t.Fatalf("expected zeroed report, got %+v", rep)
			}
			if len(rep.TopLikedSubjects) != 0 || len(rep.TopReactingActors) != 0 {
				t.Fatalf("expected empty rankings, got %+v", rep)
			}
			if !rep.GeneratedAt.Equal(fixed) {
				t.Fatalf("expected generated_at %v, got %v", fixed, rep.GeneratedAt)
			}
		})
	}
}
