// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package taxonomy owns the admin-curated category list: name
// canonicalization, the versioned JSON list in the settings table, the
// authorized mutations that cascade into posts, and the public read
// projections built from it.
package taxonomy

import (
	"strings"

	"wisdomia/internal/models"
	"wisdomia/internal/slug"
)

// BaseCategories are the built-in categories. Names whose slug matches one
// of them canonicalize to its spelling.
var BaseCategories = []string{
	"Technology",
	"Design",
	"Culture",
	"Business",
	"Self",
	"Politics",
}

var baseBySlug = func() map[string]string {
	m := make(map[string]string, len(BaseCategories))
	for _, name := range BaseCategories {
		m[Slug(name)] = name
	}
	return m
}()

// NormalizeName collapses every run of whitespace to a single space and
// trims the result.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// CanonicalizeName returns the stored spelling of a category name. Empty
// input stays empty. Base categories are matched by slug so "TECHNOLOGY"
// and " technology " both become "Technology"; any other name keeps the
// casing it was typed with.
func CanonicalizeName(raw string) string {
	name := NormalizeName(raw)
	if name == "" {
		return ""
	}
	if base, ok := baseBySlug[Slug(name)]; ok {
		return base
	}
	return name
}

// Slug derives the topic slug of a category name. It returns "" for names
// without ASCII letters or digits.
func Slug(name string) string {
	return slug.Topic(NormalizeName(name))
}

// BaseList returns the base categories as a sorted managed list.
func BaseList() []models.ManagedCategory {
	list := make([]models.ManagedCategory, 0, len(BaseCategories))
	for _, name := range BaseCategories {
		list = append(list, models.ManagedCategory{Name: name})
	}
	return Sort(list)
}

// ref builds the post-side reference of a managed category.
func ref(c models.ManagedCategory) models.CategoryRef {
	return models.CategoryRef{Name: c.Name, NameBn: c.NameBn, TopicSlug: Slug(c.Name)}
}
