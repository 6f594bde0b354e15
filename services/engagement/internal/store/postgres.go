package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the engagement tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// PostgresReactionStore persists reactions in Postgres.
type PostgresReactionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresReactionStore creates a store backed by Postgres.
func NewPostgresReactionStore(pool *pgxpool.Pool) *PostgresReactionStore {
	return &PostgresReactionStore{pool: pool}
}

const reactionCols = `id, subject_id, actor_id, is_positive, created_at, updated_at`

func scanReaction(row pgx.Row) (Reaction, error) {
	var r Reaction
	err := row.Scan(&r.ID, &r.SubjectID, &r.ActorID, &r.IsPositive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresReactionStore) Get(ctx context.Context, subjectID, actorID string) (Reaction, error) {
	q := `SELECT ` + reactionCols + ` FROM reactions WHERE subject_id = $1 AND actor_id = $2`
	r, err := scanReaction(s.pool.QueryRow(ctx, q, subjectID, actorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reaction{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresReactionStore) Insert(ctx context.Context, r Reaction) (Reaction, error) {
	q := `INSERT INTO reactions (subject_id, actor_id, is_positive)
	      VALUES ($1, $2, $3)
	      RETURNING ` + reactionCols
	out, err := scanReaction(s.pool.QueryRow(ctx, q, r.SubjectID, r.ActorID, r.IsPositive))
	if err != nil {
		if isUniqueViolation(err) {
			return Reaction{}, ErrConflict
		}
		return Reaction{}, err
	}
	return out, nil
}

func (s *PostgresReactionStore) UpdateSentiment(ctx context.Context, id string, from, to bool) (Reaction, error) {
	q := `UPDATE reactions SET is_positive = $3, updated_at = now()
	      WHERE id = $1 AND is_positive = $2
	      RETURNING ` + reactionCols
	r, err := scanReaction(s.pool.QueryRow(ctx, q, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reaction{}, ErrStale
	}
	return r, err
}

func (s *PostgresReactionStore) DeleteIfSentiment(ctx context.Context, id string, isPositive bool) error {
	const q = `DELETE FROM reactions WHERE id = $1 AND is_positive = $2`
	tag, err := s.pool.Exec(ctx, q, id, isPositive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (s *PostgresReactionStore) ListBySubject(ctx context.Context, subjectID string) ([]Reaction, error) {
	q := `SELECT ` + reactionCols + ` FROM reactions WHERE subject_id = $1 ORDER BY created_at, id`
	return s.scanReactions(ctx, q, subjectID)
}

func (s *PostgresReactionStore) ListAll(ctx context.Context) ([]Reaction, error) {
	q := `SELECT ` + reactionCols + ` FROM reactions ORDER BY created_at, id`
	return s.scanReactions(ctx, q)
}

func (s *PostgresReactionStore) scanReactions(ctx context.Context, q string, args ...any) ([]Reaction, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reaction
	for rows.Next() {
		r, err := scanReaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentCols = `id, subject_id, content, author_name, author_email, actor_id, parent_comment_id, status, created_at`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	var st string
	err := row.Scan(&c.ID, &c.SubjectID, &c.Content, &c.AuthorName, &c.AuthorEmail,
		&c.ActorID, &c.ParentCommentID, &st, &c.CreatedAt)
	c.Status = Status(st)
	return c, err
}

func (s *PostgresCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	q := `INSERT INTO comments (subject_id, content, author_name, author_email, actor_id, parent_comment_id, status)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      RETURNING ` + commentCols
	return scanComment(s.pool.QueryRow(ctx, q, c.SubjectID, c.Content, c.AuthorName,
		c.AuthorEmail, c.ActorID, c.ParentCommentID, string(c.Status)))
}

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	q := `SELECT ` + commentCols + ` FROM comments WHERE id = $1`
	c, err := scanComment(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

// where builds the WHERE clause for a filter, numbering placeholders from 1.
func (f CommentFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.SubjectID != "" {
		args = append(args, f.SubjectID)
		conds = append(conds, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresCommentStore) List(ctx context.Context, f CommentFilter) ([]Comment, error) {
	where, args := f.where()
	q := `SELECT ` + commentCols + ` FROM comments` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) Count(ctx context.Context, f CommentFilter) (int, error) {
	where, args := f.where()
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments`+where, args...).Scan(&n)
	return n, err
}

func (s *PostgresCommentStore) UpdateStatus(ctx context.Context, id string, st Status) (Comment, error) {
	q := `UPDATE comments SET status = $2 WHERE id = $1 RETURNING ` + commentCols
	c, err := scanComment(s.pool.QueryRow(ctx, q, id, string(st)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresSubjectStore persists the subject catalog in Postgres.
type PostgresSubjectStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSubjectStore creates a store backed by Postgres.
func NewPostgresSubjectStore(pool *pgxpool.Pool) *PostgresSubjectStore {
	return &PostgresSubjectStore{pool: pool}
}

func (s *PostgresSubjectStore) Upsert(ctx context.Context, sub Subject) (Subject, error) {
	const q = `INSERT INTO subjects (id, title, slug)
	           VALUES ($1, $2, $3)
	           ON CONFLICT (id) DO UPDATE SET
	             title = EXCLUDED.title,
	             slug = EXCLUDED.slug
	           RETURNING id, title, slug, created_at`
	var out Subject
	err := s.pool.QueryRow(ctx, q, sub.ID, sub.Title, sub.Slug).
		Scan(&out.ID, &out.Title, &out.Slug, &out.CreatedAt)
	return out, err
}

func (s *PostgresSubjectStore) List(ctx context.Context) ([]Subject, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, slug, created_at FROM subjects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subject
	for rows.Next() {
		var sub Subject
		if err := rows.Scan(&sub.ID, &sub.Title, &sub.Slug, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
