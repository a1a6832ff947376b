// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"wisdomia/internal/models"
)

// postColumns lists all columns for posts SELECTs.
const postColumns = `id, slug, title, subtitle, excerpt, content, author_name,
	category, category_bn, topic_slug, featured, published,
	published_at, created_at, updated_at`

// ErrDuplicateSlug is returned by Create and Update when another post
// already uses the slug.
var ErrDuplicateSlug = errors.New("post slug already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostStore handles all post-related database operations, including the
// bulk category statements used by the taxonomy cascade.
type PostStore struct {
	db DBTX
}

// NewPostStore creates a new PostStore backed by the given database or
// transaction.
func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db}
}

// scanPost scans a single posts row into a Post.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Subtitle, &p.Excerpt, &p.Content, &p.AuthorName,
		&p.Category, &p.CategoryBn, &p.TopicSlug, &p.Featured, &p.Published,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostStore) queryPosts(ctx context.Context, op, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// List returns every post, drafts included, newest first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, "list posts", `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY created_at DESC`)
}

// ListPublished returns up to limit published posts, newest first.
func (s *PostStore) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	return s.queryPosts(ctx, "list published posts", `
		SELECT `+postColumns+`
		FROM posts
		WHERE published
		ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT $1`, limit)
}

// ListPublishedByCategory returns the published posts of a category,
// matching the name case-insensitively.
func (s *PostStore) ListPublishedByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return s.queryPosts(ctx, "list posts by category", `
		SELECT `+postColumns+`
		FROM posts
		WHERE published AND LOWER(category) = LOWER($1)
		ORDER BY published_at DESC NULLS LAST, created_at DESC`, category)
}

// FindBySlug retrieves a post by its slug regardless of status.
// Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugExists reports whether another post already uses slug. excludeID
// skips the post being edited.
func (s *PostStore) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new post and returns it with the generated ID.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if p.Published && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	created, err := scanPost(s.db.QueryRowContext(ctx, `
		INSERT INTO posts (slug, title, subtitle, excerpt, content, author_name,
		                   category, category_bn, topic_slug, featured, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+postColumns,
		p.Slug, p.Title, p.Subtitle, p.Excerpt, p.Content, p.AuthorName,
		p.Category, p.CategoryBn, p.TopicSlug, p.Featured, p.Published, p.PublishedAt,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Update saves every editable field of an existing post, identified by ID.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	if p.Published && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET slug = $1, title = $2, subtitle = $3, excerpt = $4, content = $5,
		    author_name = $6, category = $7, category_bn = $8, topic_slug = $9,
		    featured = $10, published = $11, published_at = $12, updated_at = NOW()
		WHERE id = $13`,
		p.Slug, p.Title, p.Subtitle, p.Excerpt, p.Content, p.AuthorName,
		p.Category, p.CategoryBn, p.TopicSlug, p.Featured, p.Published, p.PublishedAt, p.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// CountPublishedByCategory returns published post counts grouped by
// category case-insensitively. The reported name is one spelling found in
// the group.
func (s *PostStore) CountPublishedByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT MIN(category), COUNT(*)
		FROM posts
		WHERE published
		GROUP BY LOWER(category)
		ORDER BY LOWER(category)`)
	if err != nil {
		return nil, fmt.Errorf("count posts by category: %w", err)
	}
	defer rows.Close()

	counts := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ReplaceCategory moves every post whose category equals previous
// (case-insensitively) to ref. Rows already carrying ref are left alone.
// Returns the number of posts changed.
func (s *PostStore) ReplaceCategory(ctx context.Context, previous string, ref models.CategoryRef) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET category = $1, category_bn = $2, topic_slug = $3, updated_at = NOW()
		WHERE LOWER(category) = LOWER($4)
		  AND (category IS DISTINCT FROM $1
		       OR category_bn IS DISTINCT FROM $2
		       OR topic_slug IS DISTINCT FROM $3)`,
		ref.Name, ref.NameBn, nullString(ref.TopicSlug), previous,
	)
	if err != nil {
		return 0, fmt.Errorf("replace post category: %w", err)
	}
	return res.RowsAffected()
}

// ReassignUnlisted moves every post whose category is not one of keep
// (case-insensitively) to ref. Returns the number of posts changed.
func (s *PostStore) ReassignUnlisted(ctx context.Context, keep []string, ref models.CategoryRef) (int64, error) {
	args := []any{ref.Name, ref.NameBn, nullString(ref.TopicSlug)}
	query := `
		UPDATE posts
		SET category = $1, category_bn = $2, topic_slug = $3, updated_at = NOW()`

	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, name := range keep {
			args = append(args, name)
			placeholders[i] = fmt.Sprintf("LOWER($%d)", len(args))
		}
		query += `
		WHERE LOWER(category) NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reassign unlisted posts: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
