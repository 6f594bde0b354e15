package engagement

import (
	"context"
	"sort"
	"time"

	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// topN bounds both ranked lists of a Report.
const topN = 5

// SubjectScore ranks a subject by likes minus dislikes.
type SubjectScore struct {
	SubjectID string `json:"subject_id"`
	Title     string `json:"title,omitempty"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
	NetScore  int    `json:"net_score"`
}

// ActorCount is the number of likes an actor has given.
type ActorCount struct {
	ActorID string `json:"actor_id"`
	Likes   int    `json:"likes"`
}

// Report is the global engagement rollup. Available is false when the
// report could not be computed and every figure is zero.
type Report struct {
	TotalLikes        int            `json:"total_likes"`
	TotalDislikes     int            `json:"total_dislikes"`
	TotalComments     int            `json:"total_comments"`
	PendingComments   int            `json:"pending_comments"`
	TopLikedSubjects  []SubjectScore `json:"top_liked_subjects"`
	TopReactingActors []ActorCount   `json:"top_reacting_actors"`
	Available         bool           `json:"available"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// ReportSource produces the global report.
type ReportSource interface {
	GlobalEngagement(ctx context.Context) (Report, error)
}

// Reporter recomputes the rollup from source records on every call. Stats
// for every subject come from a single scan of all reactions, which keeps it
// simple but linear in the reaction count.
type Reporter struct {
	reactions store.ReactionStore
	comments  store.CommentStore
	subjects  store.SubjectStore
	now       func() time.Time
}

func NewReporter(rs store.ReactionStore, cs store.CommentStore, ss store.SubjectStore) *Reporter {
	return &Reporter{reactions: rs, comments: cs, subjects: ss, now: time.Now}
}

func zeroReport(at time.Time) Report {
	return Report{
		TopLikedSubjects:  []SubjectScore{},
		TopReactingActors: []ActorCount{},
		GeneratedAt:       at,
	}
}

// GlobalEngagement computes the rollup. On any read failure it returns a
// zeroed report alongside a *StorageError so callers can still render it.
func (r *Reporter) GlobalEngagement(ctx context.Context) (Report, error) {
	at := r.now().UTC()

	reactions, err := r.reactions.ListAll(ctx)
	if err != nil {
		return zeroReport(at), storageErr("report reactions", err)
	}
	total, err := r.comments.Count(ctx, store.CommentFilter{})
	if err != nil {
		return zeroReport(at), storageErr("report comments", err)
	}
	pending, err := r.comments.Count(ctx, store.CommentFilter{Status: store.StatusPending})
	if err != nil {
		return zeroReport(at), storageErr("report pending", err)
	}
	subjects, err := r.subjects.List(ctx)
	if err != nil {
		return zeroReport(at), storageErr("report subjects", err)
	}

	rep := Report{
		TotalComments:   total,
		PendingComments: pending,
		Available:       true,
		GeneratedAt:     at,
	}
	for _, rx := range reactions {
		if rx.IsPositive {
			rep.TotalLikes++
		} else {
			rep.TotalDislikes++
		}
	}
	rep.TopLikedSubjects = rankSubjects(subjects, reactions)
	rep.TopReactingActors = rankActors(reactions)
	return rep, nil
}

// rankSubjects scores every known subject: catalog subjects in registration
// order, then subjects seen only in reactions in first-reaction order. Ties
// keep that order.
func rankSubjects(catalog []store.Subject, reactions []store.Reaction) []SubjectScore {
	scores := make([]SubjectScore, 0, len(catalog))
	pos := make(map[string]int, len(catalog))
	for _, s := range catalog {
		if _, seen := pos[s.ID]; seen {
			continue
		}
		pos[s.ID] = len(scores)
		scores = append(scores, SubjectScore{SubjectID: s.ID, Title: s.Title})
	}
	for _, rx := range reactions {
		i, ok := pos[rx.SubjectID]
		if !ok {
			i = len(scores)
			pos[rx.SubjectID] = i
			scores = append(scores, SubjectScore{SubjectID: rx.SubjectID})
		}
		if rx.IsPositive {
			scores[i].Likes++
		} else {
			scores[i].Dislikes++
		}
	}
	for i := range scores {
		scores[i].NetScore = scores[i].Likes - scores[i].Dislikes
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].NetScore > scores[j].NetScore })
	if len(scores) > topN {
		scores = scores[:topN]
	}
	return scores
}

// rankActors counts likes per actor in first-seen order.
func rankActors(reactions []store.Reaction) []ActorCount {
	counts := []ActorCount{}
	pos := make(map[string]int)
	for _, rx := range reactions {
		if !rx.IsPositive {
			continue
		}
		i, ok := pos[rx.ActorID]
		if !ok {
			i = len(counts)
			pos[rx.ActorID] = i
			counts = append(counts, ActorCount{ActorID: rx.ActorID})
		}
		counts[i].Likes++
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Likes > counts[j].Likes })
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}
