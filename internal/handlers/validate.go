package handlers

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Validation limits for post fields.
const (
	maxTitleLen    = 300
	maxSubtitleLen = 500
	maxSlugLen     = 300
	maxContentLen  = 500_000
	maxCategoryLen = 100

	excerptLength = 200
)

// excerptPolicy drops every element, along with the contents of script
// and style elements. A space stands in for each removed tag so block
// elements do not run together.
var excerptPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// validatePost checks post inputs and returns every problem found, joined
// into one message, or "" when the post is valid.
func validatePost(in *PostInput) string {
	var problems []string

	if in.Title == "" {
		problems = append(problems, "Title is required")
	} else if utf8.RuneCountInString(in.Title) > maxTitleLen {
		problems = append(problems, "Title is too long (max 300 characters)")
	}
	if in.Content == "" {
		problems = append(problems, "Content is required")
	} else if utf8.RuneCountInString(in.Content) > maxContentLen {
		problems = append(problems, "Content is too long (max 500,000 characters)")
	}
	if in.Category == "" {
		problems = append(problems, "Category is required")
	} else if utf8.RuneCountInString(in.Category) > maxCategoryLen {
		problems = append(problems, "Category is too long (max 100 characters)")
	}
	if in.Subtitle != nil && utf8.RuneCountInString(*in.Subtitle) > maxSubtitleLen {
		problems = append(problems, "Subtitle is too long (max 500 characters)")
	}
	if utf8.RuneCountInString(in.Slug) > maxSlugLen {
		problems = append(problems, "Slug is too long (max 300 characters)")
	}

	if len(problems) == 0 {
		return ""
	}
	return "Validation failed: " + strings.Join(problems, ", ")
}

// excerpt reduces content to plain text with entities decoded and
// whitespace collapsed, then shortens it to excerptLength characters
// followed by an ellipsis.
func excerpt(content string) string {
	plain := html.UnescapeString(excerptPolicy.Sanitize(content))
	plain = strings.Join(strings.Fields(plain), " ")
	if utf8.RuneCountInString(plain) <= excerptLength {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:excerptLength])) + "..."
}
