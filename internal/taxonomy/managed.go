// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"wisdomia/internal/models"
)

// SettingsReader loads a settings row. A missing key returns nil, nil.
type SettingsReader interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
}

// SettingsWriter writes a settings row if its version still matches.
// Expected version 0 means the row must not exist. A mismatch returns
// ErrStale.
type SettingsWriter interface {
	CompareAndSet(ctx context.Context, key, value string, expected int64) (int64, error)
}

// PostCascader applies category changes to posts in bulk.
type PostCascader interface {
	ReplaceCategory(ctx context.Context, previous string, ref models.CategoryRef) (int64, error)
	ReassignUnlisted(ctx context.Context, keep []string, ref models.CategoryRef) (int64, error)
}

// Tx is the unit of work a mutation runs in.
type Tx interface {
	SettingsWriter
	PostCascader
}

// Transactor runs fn in a single transaction, committing only if fn
// returns nil.
type Transactor interface {
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// Snapshot is the managed list together with the settings row version it
// was read at. Version 0 means the row does not exist yet.
type Snapshot struct {
	Categories []models.ManagedCategory
	Version    int64
}

// ManagedStore is the only reader and writer of the managed category list.
type ManagedStore struct {
	settings SettingsReader
	tx       Transactor
	key      string
}

// NewManagedStore returns a store for the list kept under key.
func NewManagedStore(settings SettingsReader, tx Transactor, key string) *ManagedStore {
	return &ManagedStore{settings: settings, tx: tx, key: key}
}

// Read returns the sorted list. A missing row, a storage failure or a
// malformed value all read as an empty list; public pages must not fail
// because the taxonomy is unavailable.
func (m *ManagedStore) Read(ctx context.Context) []models.ManagedCategory {
	snap, err := m.Load(ctx)
	if err != nil {
		slog.Error("read managed categories", "key", m.key, "error", err)
		return []models.ManagedCategory{}
	}
	return snap.Categories
}

// Load returns the sorted list and its version. Unlike Read it reports
// storage failures, so a mutation never overwrites a list it could not see.
// A malformed value still loads as empty so an admin can replace it.
func (m *ManagedStore) Load(ctx context.Context) (Snapshot, error) {
	st, err := m.settings.Get(ctx, m.key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", m.key, err)
	}
	if st == nil {
		return Snapshot{Categories: []models.ManagedCategory{}}, nil
	}

	list, err := parse(st.Value)
	if err != nil {
		slog.Warn("malformed managed categories", "key", m.key, "version", st.Version, "error", err)
		list = []models.ManagedCategory{}
	}
	return Snapshot{Categories: list, Version: st.Version}, nil
}

// Write replaces the whole list if the stored version still equals
// expected. A mismatch returns ErrStale.
func (m *ManagedStore) Write(ctx context.Context, list []models.ManagedCategory, expected int64) error {
	return m.tx.Atomically(ctx, func(tx Tx) error {
		return m.writeIn(ctx, tx, list, expected)
	})
}

func (m *ManagedStore) writeIn(ctx context.Context, w SettingsWriter, list []models.ManagedCategory, expected int64) error {
	payload, err := json.Marshal(clean(list))
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.key, err)
	}
	if _, err := w.CompareAndSet(ctx, m.key, string(payload), expected); err != nil {
		if errors.Is(err, ErrStale) {
			return ErrStale
		}
		return fmt.Errorf("write %s: %w", m.key, err)
	}
	return nil
}

// parse decodes a stored list and cleans it.
func parse(raw string) ([]models.ManagedCategory, error) {
	var list []models.ManagedCategory
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return clean(list), nil
}

// clean canonicalizes names, drops empty ones and duplicates (compared
// case-insensitively, first wins), trims Bengali names and sorts.
func clean(list []models.ManagedCategory) []models.ManagedCategory {
	seen := make(map[string]bool, len(list))
	out := make([]models.ManagedCategory, 0, len(list))
	for _, c := range list {
		name := CanonicalizeName(c.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.ManagedCategory{Name: name, NameBn: cleanBn(c.NameBn)})
	}
	return Sort(out)
}

// cleanBn trims a Bengali name; blank becomes absent.
func cleanBn(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Sort returns a copy of list ordered by name for English readers,
// ignoring case and accents. Equal keys fall back to byte order so the
// result does not depend on input order.
func Sort(list []models.ManagedCategory) []models.ManagedCategory {
	out := make([]models.ManagedCategory, len(list))
	copy(out, list)

	// A Collator keeps scratch buffers and is not safe for concurrent use.
	c := collate.New(language.English, collate.Loose)
	slices.SortStableFunc(out, func(a, b models.ManagedCategory) int {
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// sortSummaries orders summaries the same way Sort orders categories.
func sortSummaries(list []models.CategorySummary) {
	c := collate.New(language.English, collate.Loose)
	slices.SortStableFunc(list, func(a, b models.CategorySummary) int {
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// findSlug returns the index of the entry whose topic slug is slug, or -1.
func findSlug(list []models.ManagedCategory, slug string) int {
	for i, c := range list {
		if Slug(c.Name) == slug {
			return i
		}
	}
	return -1
}

// find returns the index of the entry named name, compared
// case-insensitively, or -1.
func find(list []models.ManagedCategory, name string) int {
	for i, c := range list {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}
