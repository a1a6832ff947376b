// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
	"wisdomia/internal/slug"
	"wisdomia/internal/store"
)

// Messages shown to authors.
const (
	msgDuplicateSlug  = "A story with this title/slug already exists. Please change the title."
	msgPostNotFound   = "Post not found or no changes made"
	msgSlugUnusable   = "Could not derive a URL slug from the title, please provide one"
	msgCreateFailed   = "Failed to create post. Please try again."
	msgUpdateFailed   = "Failed to update post. Please try again."
	msgDeleteFailed   = "Failed to delete post"
	msgStatusFailed   = "Failed to update post status"
	msgListFailed     = "Failed to load posts"
	msgAuthorRequired = "Authentication required"
)

// PostRepository is the post storage used by the authoring handlers.
type PostRepository interface {
	List(ctx context.Context) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryResolver maps the category typed on a post to the stored
// category reference.
type CategoryResolver interface {
	Resolve(ctx context.Context, raw string, nameBn *string) models.CategoryRef
}

// PostInvalidator drops cached pages after a post changes.
type PostInvalidator interface {
	InvalidatePost(ctx context.Context, slug, action string)
}

// PostInput is the body of create and update requests. Published defaults
// to true when omitted.
type PostInput struct {
	Title      string  `json:"title"`
	Subtitle   *string `json:"subtitle"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	CategoryBn *string `json:"categoryBn"`
	Slug       string  `json:"slug"`
	Featured   bool    `json:"featured"`
	Published  *bool   `json:"published"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.TrimSpace(in.Category)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Subtitle != nil {
		s := strings.TrimSpace(*in.Subtitle)
		in.Subtitle = &s
		if s == "" {
			in.Subtitle = nil
		}
	}
}

func (in *PostInput) published() bool {
	return in.Published == nil || *in.Published
}

// apply copies the editable fields onto p, resolving the category.
func (in *PostInput) apply(ctx context.Context, p *models.Post, categories CategoryResolver) {
	p.Title = in.Title
	p.Subtitle = in.Subtitle
	p.Content = in.Content
	p.Excerpt = excerpt(in.Content)
	p.Featured = in.Featured
	p.Published = in.published()
	p.ApplyCategory(categories.Resolve(ctx, in.Category, in.CategoryBn))
}

// PostResult is the body of single-post responses.
type PostResult struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Post    *models.Post `json:"post,omitempty"`
}

// PostList is the body of the post listing.
type PostList struct {
	Success bool          `json:"success"`
	Posts   []models.Post `json:"posts"`
}

// StatusInput toggles a post between draft and published.
type StatusInput struct {
	Published bool `json:"published"`
}

// Posts serves the authoring API under /admin/api/posts.
type Posts struct {
	repo       PostRepository
	categories CategoryResolver
	cache      PostInvalidator
}

// NewPosts creates the post handler group. cache may be nil.
func NewPosts(repo PostRepository, categories CategoryResolver, cache PostInvalidator) *Posts {
	return &Posts{repo: repo, categories: categories, cache: cache}
}

// List handles GET /admin/api/posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("list posts failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgListFailed)
		return
	}
	writeJSON(w, http.StatusOK, PostList{Success: true, Posts: posts})
}

// Get handles GET /admin/api/posts/{slug}.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PostResult{Success: true, Post: post})
}

// Create handles POST /admin/api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, msgAuthorRequired)
		return
	}

	var in PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.normalize()
	if msg := validatePost(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	postSlug := in.Slug
	if postSlug == "" {
		postSlug = in.Title
	}
	postSlug = slug.Generate(postSlug)
	if postSlug == "" {
		writeError(w, http.StatusBadRequest, msgSlugUnusable)
		return
	}

	exists, err := h.repo.SlugExists(ctx, postSlug, uuid.Nil)
	if err != nil {
		slog.Error("check post slug failed", "error", err, "slug", postSlug)
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, msgDuplicateSlug)
		return
	}

	post := &models.Post{Slug: postSlug, AuthorName: sess.DisplayName}
	in.apply(ctx, post, h.categories)

	created, err := h.repo.Create(ctx, post)
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeError(w, http.StatusConflict, msgDuplicateSlug)
		return
	}
	if err != nil {
		slog.Error("create post failed", "error", err, "slug", postSlug)
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	h.invalidate(ctx, created.Slug, "create")
	slog.Info("post created", "slug", created.Slug, "category", created.Category, "author", sess.Email)
	writeJSON(w, http.StatusCreated, PostResult{Success: true, Post: created})
}

// Update handles PUT /admin/api/posts/{slug}. The slug itself never
// changes so existing links keep working.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.normalize()
	if msg := validatePost(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	post, ok := h.find(w, r)
	if !ok {
		return
	}
	in.apply(ctx, post, h.categories)

	err := h.repo.Update(ctx, post)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, msgPostNotFound)
		return
	}
	if err != nil {
		slog.Error("update post failed", "error", err, "slug", post.Slug)
		writeError(w, http.StatusInternalServerError, msgUpdateFailed)
		return
	}

	h.invalidate(ctx, post.Slug, "update")
	writeJSON(w, http.StatusOK, PostResult{Success: true, Post: post})
}

// SetStatus handles POST /admin/api/posts/{slug}/status.
func (h *Posts) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in StatusInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, ok := h.find(w, r)
	if !ok {
		return
	}
	post.Published = in.Published

	err := h.repo.Update(ctx, post)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, msgPostNotFound)
		return
	}
	if err != nil {
		slog.Error("toggle post status failed", "error", err, "slug", post.Slug)
		writeError(w, http.StatusInternalServerError, msgStatusFailed)
		return
	}

	action := "unpublish"
	if post.Published {
		action = "publish"
	}
	h.invalidate(ctx, post.Slug, action)
	writeJSON(w, http.StatusOK, PostResult{Success: true, Post: post})
}

// Delete handles DELETE /admin/api/posts/{slug}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(ctx, post.ID); err != nil {
		slog.Error("delete post failed", "error", err, "slug", post.Slug)
		writeError(w, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	h.invalidate(ctx, post.Slug, "delete")
	writeJSON(w, http.StatusOK, PostResult{Success: true})
}

// find loads the post named by the {slug} URL parameter, answering 404 or
// 500 itself when it cannot.
func (h *Posts) find(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	postSlug := chi.URLParam(r, "slug")
	post, err := h.repo.FindBySlug(r.Context(), postSlug)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", postSlug)
		writeError(w, http.StatusInternalServerError, msgListFailed)
		return nil, false
	}
	if post == nil {
		writeError(w, http.StatusNotFound, msgPostNotFound)
		return nil, false
	}
	return post, true
}

func (h *Posts) invalidate(ctx context.Context, postSlug, action string) {
	if h.cache != nil {
		h.cache.InvalidatePost(ctx, postSlug, action)
	}
}
