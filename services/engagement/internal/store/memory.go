package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type reactionKey struct {
	subjectID string
	actorID   string
}

type seqReaction struct {
	Reaction
	seq uint64
}

// InMemoryReactionStore is a development-only in-memory implementation.
type InMemoryReactionStore struct {
	mu    sync.RWMutex
	seq   uint64
	byKey map[reactionKey]string // (subject, actor) -> id
	rows  map[string]seqReaction // id -> reaction
}

func NewInMemoryReactionStore() *InMemoryReactionStore {
	return &InMemoryReactionStore{
		byKey: make(map[reactionKey]string),
		rows:  make(map[string]seqReaction),
	}
}

func (s *InMemoryReactionStore) Get(_ context.Context, subjectID, actorID string) (Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[reactionKey{subjectID, actorID}]
	if !ok {
		return Reaction{}, ErrNotFound
	}
	return s.rows[id].Reaction, nil
}

func (s *InMemoryReactionStore) Insert(_ context.Context, r Reaction) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := reactionKey{r.SubjectID, r.ActorID}
	if _, exists := s.byKey[key]; exists {
		return Reaction{}, ErrConflict
	}
	now := time.Now().UTC()
	r.ID = uuid.New().String()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.seq++
	s.byKey[key] = r.ID
	s.rows[r.ID] = seqReaction{Reaction: r, seq: s.seq}
	return r, nil
}

func (s *InMemoryReactionStore) UpdateSentiment(_ context.Context, id string, from, to bool) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.IsPositive != from {
		return Reaction{}, ErrStale
	}
	row.IsPositive = to
	row.UpdatedAt = time.Now().UTC()
	s.rows[id] = row
	return row.Reaction, nil
}

func (s *InMemoryReactionStore) DeleteIfSentiment(_ context.Context, id string, isPositive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.IsPositive != isPositive {
		return ErrStale
	}
	delete(s.rows, id)
	delete(s.byKey, reactionKey{row.SubjectID, row.ActorID})
	return nil
}

func (s *InMemoryReactionStore) ListBySubject(_ context.Context, subjectID string) ([]Reaction, error) {
	return s.list(func(r Reaction) bool { return r.SubjectID == subjectID }), nil
}

func (s *InMemoryReactionStore) ListAll(_ context.Context) ([]Reaction, error) {
	return s.list(func(Reaction) bool { return true }), nil
}

func (s *InMemoryReactionStore) list(match func(Reaction) bool) []Reaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]seqReaction, 0, len(s.rows))
	for _, r := range s.rows {
		if match(r.Reaction) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]Reaction, len(rows))
	for i, r := range rows {
		out[i] = r.Reaction
	}
	return out
}

type seqComment struct {
	Comment
	seq uint64
}

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	seq      uint64
	comments map[string]seqComment // id -> comment
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{comments: make(map[string]seqComment)}
}

func (s *InMemoryCommentStore) Insert(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	s.seq++
	s.comments[c.ID] = seqComment{Comment: c, seq: s.seq}
	return c, nil
}

func (s *InMemoryCommentStore) Get(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c.Comment, nil
}

func (s *InMemoryCommentStore) List(_ context.Context, f CommentFilter) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]seqComment, 0, len(s.comments))
	for _, c := range s.comments {
		if f.matches(c.Comment) {
			rows = append(rows, c)
		}
	}
	// Newest first; seq breaks timestamp ties in insertion order.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]Comment, len(rows))
	for i, c := range rows {
		out[i] = c.Comment
	}
	return out, nil
}

func (s *InMemoryCommentStore) Count(_ context.Context, f CommentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.comments {
		if f.matches(c.Comment) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) UpdateStatus(_ context.Context, id string, st Status) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	c.Status = st
	s.comments[id] = c
	return c.Comment, nil
}

func (s *InMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (f CommentFilter) matches(c Comment) bool {
	if f.SubjectID != "" && c.SubjectID != f.SubjectID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// InMemorySubjectStore is a development-only in-memory implementation.
type InMemorySubjectStore struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]Subject
}

func NewInMemorySubjectStore() *InMemorySubjectStore {
	return &InMemorySubjectStore{rows: make(map[string]Subject)}
}

func (s *InMemorySubjectStore) Upsert(_ context.Context, sub Subject) (Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rows[sub.ID]; ok {
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.CreatedAt = time.Now().UTC()
		s.order = append(s.order, sub.ID)
	}
	s.rows[sub.ID] = sub
	return sub, nil
}

func (s *InMemorySubjectStore) List(_ context.Context) ([]Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}
