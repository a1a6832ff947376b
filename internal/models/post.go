// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Post is a published or draft article. Category, CategoryBn and TopicSlug
// are copies of the managed category at the time of the last edit or
// cascade; there is no foreign key behind them.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Subtitle    *string    `json:"subtitle"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	AuthorName  string     `json:"authorName"`
	Category    string     `json:"category"`
	CategoryBn  *string    `json:"categoryBn"`
	TopicSlug   *string    `json:"topicSlug"`
	Featured    bool       `json:"featured"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// InCategory reports whether the post belongs to the named category,
// comparing case-insensitively like the cascade statements do.
func (p *Post) InCategory(name string) bool {
	return strings.EqualFold(p.Category, name)
}

// ApplyCategory copies a category reference onto the post. An empty topic
// slug is stored as NULL.
func (p *Post) ApplyCategory(ref CategoryRef) {
	p.Category = ref.Name
	p.CategoryBn = ref.NameBn
	p.TopicSlug = nil
	if ref.TopicSlug != "" {
		s := ref.TopicSlug
		p.TopicSlug = &s
	}
}
