// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"wisdomia/internal/models"
)

// Cache tags. Every cached projection that depends on categories or posts
// is registered under these so a mutation can drop them together.
const (
	TagCategories = "categories"
	TagPosts      = "posts"
)

const summariesKey = "taxonomy/summaries"

// PostCounter reports published post counts per category.
type PostCounter interface {
	CountPublishedByCategory(ctx context.Context) ([]models.CategoryCount, error)
}

// PageStore caches serialized projections under tags. Generation returns a
// value that changes whenever any of the tags is invalidated; SetTagged
// stores nothing unless the generation still equals gen, so a projection
// built from data read before an invalidation is never cached after it.
type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Generation(ctx context.Context, tags ...string) int64
	SetTagged(ctx context.Context, key string, data []byte, gen int64, tags ...string)
}

// MenuResult is the navigation answer. Links is never nil.
type MenuResult struct {
	Success bool              `json:"success"`
	Links   []models.MenuLink `json:"links"`
	Error   string            `json:"error,omitempty"`
}

// Projection builds the public, read-only category views.
type Projection struct {
	store *ManagedStore
	posts PostCounter
	cache PageStore
}

// NewProjection returns a projection over the managed list and post
// counts. cache may be nil.
func NewProjection(store *ManagedStore, posts PostCounter, cache PageStore) *Projection {
	return &Projection{store: store, posts: posts, cache: cache}
}

// Summaries lists every category a reader can browse: each managed
// category, plus categories that only exist on published posts so older
// content stays reachable. The base categories stand in only while no list
// was ever saved; an emptied list stays empty. Entries are unique by slug
// and sorted by name.
func (p *Projection) Summaries(ctx context.Context) ([]models.CategorySummary, error) {
	var gen int64
	if p.cache != nil {
		if data, ok := p.cache.Get(ctx, summariesKey); ok {
			var cached []models.CategorySummary
			if err := json.Unmarshal(data, &cached); err == nil && cached != nil {
				return cached, nil
			}
		}
		gen = p.cache.Generation(ctx, TagCategories, TagPosts)
	}

	snap, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load managed categories: %w", err)
	}
	managed := snap.Categories
	if snap.Version == 0 {
		managed = BaseList()
	}

	counts, err := p.posts.CountPublishedByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count posts per category: %w", err)
	}

	out := summarize(managed, counts)

	if p.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			p.cache.SetTagged(ctx, summariesKey, data, gen, TagCategories, TagPosts)
		}
	}
	return out, nil
}

func summarize(managed []models.ManagedCategory, counts []models.CategoryCount) []models.CategorySummary {
	byName := make(map[string]int, len(counts))
	for _, c := range counts {
		byName[strings.ToLower(c.Category)] += c.Count
	}

	out := make([]models.CategorySummary, 0, len(managed)+len(counts))
	slugs := make(map[string]bool, len(managed)+len(counts))
	covered := make(map[string]bool, len(managed))

	for _, c := range managed {
		s := Slug(c.Name)
		if s == "" || slugs[s] {
			continue
		}
		key := strings.ToLower(c.Name)
		slugs[s] = true
		covered[key] = true
		out = append(out, models.CategorySummary{
			Name:          c.Name,
			NameBn:        c.NameBn,
			Slug:          s,
			CanonicalName: c.Name,
			Count:         byName[key],
		})
	}

	for _, c := range counts {
		key := strings.ToLower(c.Category)
		if covered[key] || c.Count <= 0 {
			continue
		}
		name := CanonicalizeName(c.Category)
		s := Slug(name)
		if s == "" || slugs[s] {
			continue
		}
		slugs[s] = true
		covered[key] = true
		out = append(out, models.CategorySummary{
			Name:          name,
			Slug:          s,
			CanonicalName: c.Category,
			Count:         byName[key],
		})
	}

	sortSummaries(out)
	return out
}

// Menu returns navigation links to every topic page. It never fails: on
// error it reports success false with an empty link list.
func (p *Projection) Menu(ctx context.Context) MenuResult {
	sums, err := p.Summaries(ctx)
	if err != nil {
		slog.Error("failed to fetch menu categories", "error", err)
		return MenuResult{Success: false, Error: MsgMenuFailed, Links: []models.MenuLink{}}
	}

	links := make([]models.MenuLink, 0, len(sums))
	for _, s := range sums {
		links = append(links, models.MenuLink{
			Name:  s.Name,
			Href:  "/topics/" + s.Slug,
			Count: s.Count,
		})
	}
	return MenuResult{Success: true, Links: links}
}

// BySlug finds the summary routed at slug.
func (p *Projection) BySlug(ctx context.Context, slug string) (models.CategorySummary, bool, error) {
	sums, err := p.Summaries(ctx)
	if err != nil {
		return models.CategorySummary{}, false, err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, s := range sums {
		if s.Slug == slug {
			return s, true, nil
		}
	}
	return models.CategorySummary{}, false, nil
}
