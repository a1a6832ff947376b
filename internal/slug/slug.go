// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides the two URL slug rules used by the site: post slugs
// derived from titles and topic slugs derived from category names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// topicSeparators matches every run of characters outside [a-z0-9].
	topicSeparators = regexp.MustCompile(`[^a-z0-9]+`)
)

// Generate creates a post slug from a title. Punctuation is dropped rather
// than turned into a separator.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Topic creates a topic slug from a category name. Every run of characters
// outside [a-z0-9] becomes a single hyphen, so punctuation separates words.
// Example: "Arts & Culture" → "arts-culture"
func Topic(s string) string {
	result := strings.ToLower(s)
	result = topicSeparators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
