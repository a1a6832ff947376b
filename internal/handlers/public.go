// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wisdomia/internal/cache"
	"wisdomia/internal/models"
	"wisdomia/internal/taxonomy"
)

// homePostLimit is the number of recent stories on the homepage.
const homePostLimit = 12

const (
	msgPageFailed    = "Failed to load stories"
	msgTopicNotFound = "Topic not found"
)

var errTopicNotFound = errors.New("topic not found")

// TopicProjection is the read side of the taxonomy.
type TopicProjection interface {
	Summaries(ctx context.Context) ([]models.CategorySummary, error)
	Menu(ctx context.Context) taxonomy.MenuResult
	BySlug(ctx context.Context, slug string) (models.CategorySummary, bool, error)
}

// PublishedPosts lists what readers may see.
type PublishedPosts interface {
	ListPublished(ctx context.Context, limit int) ([]models.Post, error)
	ListPublishedByCategory(ctx context.Context, category string) ([]models.Post, error)
}

// SiteSettingsReader loads the key/value site settings.
type SiteSettingsReader interface {
	All(ctx context.Context) (models.SiteSettings, error)
}

// TopicsResponse is the body of GET /api/topics.
type TopicsResponse struct {
	Success    bool                     `json:"success"`
	Categories []models.CategorySummary `json:"categories"`
}

// TopicResponse is the body of GET /api/topics/{slug}.
type TopicResponse struct {
	Success  bool                   `json:"success"`
	Category models.CategorySummary `json:"category"`
	Posts    []models.Post          `json:"posts"`
}

// HomeResponse is the body of GET /api/home.
type HomeResponse struct {
	Success bool `json:"success"`
	models.SiteInfo
	Posts      []models.Post            `json:"posts"`
	Categories []models.CategorySummary `json:"categories"`
}

// Public serves the reader-facing JSON API. Successful responses are kept
// in the Valkey page cache, tagged so category and post changes drop them.
type Public struct {
	topics   TopicProjection
	posts    PublishedPosts
	settings SiteSettingsReader
	pages    taxonomy.PageStore
	siteName string
}

// NewPublic creates the public handler group. siteName is used when the
// settings table has no site name. pages may be nil.
func NewPublic(topics TopicProjection, posts PublishedPosts, settings SiteSettingsReader, pages taxonomy.PageStore, siteName string) *Public {
	return &Public{
		topics:   topics,
		posts:    posts,
		settings: settings,
		pages:    pages,
		siteName: siteName,
	}
}

// Menu handles GET /api/menu/categories. It always answers 200.
func (p *Public) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.topics.Menu(r.Context()))
}

// Topics handles GET /api/topics.
func (p *Public) Topics(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.TopicsKey, taxonomy.MsgMenuFailed, func(ctx context.Context) (any, error) {
		sums, err := p.topics.Summaries(ctx)
		if err != nil {
			return nil, err
		}
		return TopicsResponse{Success: true, Categories: sums}, nil
	})
}

// Topic handles GET /api/topics/{slug}: the category summary and its
// published posts.
func (p *Public) Topic(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "slug")
	p.cached(w, r, cache.TopicKey(topicSlug), msgPageFailed, func(ctx context.Context) (any, error) {
		sum, ok, err := p.topics.BySlug(ctx, topicSlug)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errTopicNotFound
		}
		posts, err := p.posts.ListPublishedByCategory(ctx, sum.CanonicalName)
		if err != nil {
			return nil, err
		}
		return TopicResponse{Success: true, Category: sum, Posts: posts}, nil
	})
}

// Home handles GET /api/home: site info, recent stories and categories.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.HomepageKey(), msgPageFailed, func(ctx context.Context) (any, error) {
		settings, err := p.settings.All(ctx)
		if err != nil {
			slog.Warn("load site settings failed, using defaults", "error", err)
		}
		if settings == nil {
			settings = models.SiteSettings{}
		}
		if settings.Get(models.SettingSiteName, "") == "" && p.siteName != "" {
			settings[models.SettingSiteName] = p.siteName
		}

		posts, err := p.posts.ListPublished(ctx, homePostLimit)
		if err != nil {
			return nil, err
		}
		sums, err := p.topics.Summaries(ctx)
		if err != nil {
			return nil, err
		}
		return HomeResponse{
			Success:    true,
			SiteInfo:   settings.Info(),
			Posts:      posts,
			Categories: sums,
		}, nil
	})
}

// cached serves key from the page cache, or builds, stores and writes it.
// Only successful bodies are cached.
func (p *Public) cached(w http.ResponseWriter, r *http.Request, key, failMsg string, build func(ctx context.Context) (any, error)) {
	ctx := r.Context()

	var gen int64
	if p.pages != nil {
		if body, ok := p.pages.Get(ctx, key); ok {
			writeBody(w, http.StatusOK, body)
			return
		}
		gen = p.pages.Generation(ctx, taxonomy.TagCategories, taxonomy.TagPosts)
	}

	v, err := build(ctx)
	if errors.Is(err, errTopicNotFound) {
		writeError(w, http.StatusNotFound, msgTopicNotFound)
		return
	}
	if err != nil {
		slog.Error("public page failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode public page failed", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if p.pages != nil {
		p.pages.SetTagged(ctx, key, body, gen, taxonomy.TagCategories, taxonomy.TagPosts)
	}
	writeBody(w, http.StatusOK, body)
}
