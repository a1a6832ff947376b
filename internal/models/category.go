// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Sentinel category that posts fall back to when their category is deleted.
const (
	UncategorizedName = "Uncategorized"
	UncategorizedSlug = "uncategorized"
)

// ManagedCategory is one entry of the admin-curated category list. The list
// is persisted as a JSON array in the settings table, so the JSON field
// names are part of the stored format.
type ManagedCategory struct {
	Name   string  `json:"name"`
	NameBn *string `json:"nameBn,omitempty"` // Bengali display name
}

// BengaliName returns the localized name or "" when none is set.
func (c ManagedCategory) BengaliName() string {
	if c.NameBn == nil {
		return ""
	}
	return *c.NameBn
}

// CategoryRef is the denormalized category triple stored on a post.
type CategoryRef struct {
	Name      string
	NameBn    *string
	TopicSlug string
}

// Uncategorized returns the reference posts are moved to when their
// category is deleted.
func Uncategorized() CategoryRef {
	return CategoryRef{Name: UncategorizedName, TopicSlug: UncategorizedSlug}
}

// CategoryCount is the number of published posts carrying a category,
// grouped case-insensitively.
type CategoryCount struct {
	Category string
	Count    int
}

// CategorySummary is a read-only projection of a category for topic pages.
// CanonicalName matches Post.Category and Slug is used for routing; both are
// derived from the same canonical name.
type CategorySummary struct {
	Name          string  `json:"name"`
	NameBn        *string `json:"nameBn"`
	Slug          string  `json:"slug"`
	CanonicalName string  `json:"canonicalName"`
	Count         int     `json:"count"`
}

// MenuLink is a navigation entry pointing at a topic page.
type MenuLink struct {
	Name  string `json:"name"`
	Href  string `json:"href"`
	Count int    `json:"count"`
}
