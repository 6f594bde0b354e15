package engagement

import (
	"context"
	"errors"
	"strings"

	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// maxReactAttempts bounds re-resolution when a concurrent request for the
// same (subject, actor) pair wins a write.
const maxReactAttempts = 3

// Action is the write a React call performed.
type Action string

const (
	ActionCreated Action = "created"
	ActionRemoved Action = "removed"
	ActionUpdated Action = "updated"
)

// Outcome of a React call. Reaction is the zero value when removed.
type Outcome struct {
	Action   Action         `json:"action"`
	Reaction store.Reaction `json:"reaction"`
}

// CallerReaction values reported in Stats.
const (
	CallerLike    = "like"
	CallerDislike = "dislike"
	CallerNone    = "none"
)

// Stats summarises reactions on one subject.
type Stats struct {
	SubjectID      string `json:"subject_id"`
	Likes          int    `json:"likes"`
	Dislikes       int    `json:"dislikes"`
	NetScore       int    `json:"net_score"`
	CallerReaction string `json:"caller_reaction"`
}

// Reactions implements toggle semantics over a ReactionStore.
type Reactions struct {
	store  store.ReactionStore
	policy ReactionPolicy
	notify Notifier
}

func NewReactions(rs store.ReactionStore, policy ReactionPolicy, n Notifier) *Reactions {
	return &Reactions{store: rs, policy: policy, notify: n}
}

// React records, flips or withdraws the actor's reaction on a subject:
// no reaction inserts, the same sentiment removes, the opposite flips.
func (r *Reactions) React(ctx context.Context, subjectID string, actor Actor, isPositive bool) (Outcome, error) {
	if !r.policy.permits(actor) {
		return Outcome{}, ErrUnauthenticated
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Outcome{}, invalid("subject_id", ErrMissingSubject)
	}

	for attempt := 0; attempt < maxReactAttempts; attempt++ {
		out, err := r.reactOnce(ctx, subjectID, actor.ID, isPositive)
		if err == nil {
			notify(ctx, r.notify, Change{
				Kind:      ChangeReaction,
				SubjectID: subjectID,
				ActorID:   actor.ID,
				Detail:    string(out.Action),
			})
			return out, nil
		}
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrStale) {
			continue
		}
		return Outcome{}, storageErr("react", err)
	}
	return Outcome{}, storageErr("react", store.ErrConflict)
}

func (r *Reactions) reactOnce(ctx context.Context, subjectID, actorID string, isPositive bool) (Outcome, error) {
	existing, err := r.store.Get(ctx, subjectID, actorID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		created, err := r.store.Insert(ctx, store.Reaction{
			SubjectID:  subjectID,
			ActorID:    actorID,
			IsPositive: isPositive,
		})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: ActionCreated, Reaction: created}, nil
	case err != nil:
		return Outcome{}, err
	case existing.IsPositive == isPositive:
		if err := r.store.DeleteIfSentiment(ctx, existing.ID, isPositive); err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: ActionRemoved}, nil
	default:
		updated, err := r.store.UpdateSentiment(ctx, existing.ID, existing.IsPositive, isPositive)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Action: ActionUpdated, Reaction: updated}, nil
	}
}

// Stats counts likes and dislikes on a subject. caller may be nil.
func (r *Reactions) Stats(ctx context.Context, subjectID string, caller *Actor) (Stats, error) {
	rows, err := r.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return Stats{}, storageErr("stats", err)
	}

	st := Stats{SubjectID: subjectID, CallerReaction: CallerNone}
	for _, row := range rows {
		if row.IsPositive {
			st.Likes++
		} else {
			st.Dislikes++
		}
		if caller != nil && caller.ID != "" && row.ActorID == caller.ID {
			st.CallerReaction = sentiment(row.IsPositive)
		}
	}
	st.NetScore = st.Likes - st.Dislikes
	return st, nil
}

func sentiment(isPositive bool) string {
	if isPositive {
		return CallerLike
	}
	return CallerDislike
}
