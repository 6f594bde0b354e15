package engagement

import (
	"context"
	"strings"

	"github.com/example/blog-engagement/services/engagement/internal/store"
)

// Catalog registers the subjects the reporter ranks.
type Catalog struct {
	subjects store.SubjectStore
	notify   Notifier
}

func NewCatalog(ss store.SubjectStore, n Notifier) *Catalog {
	return &Catalog{subjects: ss, notify: n}
}

// Register adds a subject or updates its title and slug.
func (c *Catalog) Register(ctx context.Context, s store.Subject) (store.Subject, error) {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		return store.Subject{}, invalid("subject_id", ErrMissingSubject)
	}
	s.Title = strings.TrimSpace(s.Title)
	s.Slug = strings.TrimSpace(s.Slug)

	saved, err := c.subjects.Upsert(ctx, s)
	if err != nil {
		return store.Subject{}, storageErr("register subject", err)
	}
	notify(ctx, c.notify, Change{Kind: ChangeSubjectRegistered, SubjectID: saved.ID})
	return saved, nil
}
