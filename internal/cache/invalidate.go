// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"

	"wisdomia/internal/taxonomy"
)

// Page keys for listings that show categories.
const (
	TopicsKey          = "topics"
	AdminCategoriesKey = "admin/categories"
	AdminWriteKey      = "admin/write"
)

// contentPages are dropped after every category or post change, in
// addition to the tagged entries.
var contentPages = []string{HomepageKey(), TopicsKey, AdminCategoriesKey, AdminWriteKey}

// Recorder keeps an audit trail of invalidations.
type Recorder interface {
	Log(ctx context.Context, entityType, entityKey, action string)
}

// Invalidator clears cached projections after committed category and
// post changes. It never fails; errors are logged by the page cache.
type Invalidator struct {
	pages *PageCache
	log   Recorder
}

// NewInvalidator returns an Invalidator. log may be nil.
func NewInvalidator(pages *PageCache, log Recorder) *Invalidator {
	return &Invalidator{pages: pages, log: log}
}

// InvalidateTaxonomy implements taxonomy.Invalidator.
func (i *Invalidator) InvalidateTaxonomy(ctx context.Context, entityKey, action string) {
	i.invalidate(ctx, "category", entityKey, action)
}

// InvalidatePost clears the same pages after a post is created, edited,
// published or deleted.
func (i *Invalidator) InvalidatePost(ctx context.Context, slug, action string) {
	i.invalidate(ctx, "post", slug, action)
}

// InvalidateSettings drops the pages that show the site identity after a
// site setting changed.
func (i *Invalidator) InvalidateSettings(ctx context.Context, key, action string) {
	i.pages.InvalidatePage(ctx, HomepageKey())
	if i.log != nil {
		i.log.Log(ctx, "setting", key, action)
	}
}

func (i *Invalidator) invalidate(ctx context.Context, entityType, entityKey, action string) {
	i.pages.InvalidateTags(ctx, taxonomy.TagCategories, taxonomy.TagPosts)
	for _, key := range contentPages {
		i.pages.InvalidatePage(ctx, key)
	}
	if i.log != nil {
		i.log.Log(ctx, entityType, entityKey, action)
	}
}
