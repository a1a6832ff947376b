// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
)

func TestCacheLogStoreLog(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	ctx := context.Background()

	key := "cache-log-test-category"
	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_key = $1", key)
	})

	// Log should not error (best-effort).
	s.Log(ctx, "category", key, "update")

	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM cache_invalidation_log WHERE entity_key = $1", key,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 log entry, got %d", count)
	}
}

func TestCacheLogStoreRecentEntries(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	ctx := context.Background()

	k1, k2 := "cache-log-recent-1", "cache-log-recent-2"
	s.Log(ctx, "post", k1, "create")
	s.Log(ctx, "category", k2, "delete")

	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_key IN ($1, $2)", k1, k2)
	})

	entries, err := s.RecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}

	// Most recent should be first.
	if entries[0].InvalidatedAt.Before(entries[1].InvalidatedAt) {
		t.Error("expected entries ordered by invalidated_at DESC")
	}
}
