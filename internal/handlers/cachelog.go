// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"wisdomia/internal/middleware"
	"wisdomia/internal/store"
)

const (
	defaultCacheLogLimit = 50
	maxCacheLogLimit     = 500
)

// CacheLogReader lists recorded cache invalidations, newest first.
type CacheLogReader interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// CacheLogResult is the body of GET /admin/api/cache-log.
type CacheLogResult struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error,omitempty"`
	Entries []store.CacheLogEntry `json:"entries"`
}

// CacheLog serves the invalidation audit trail to admins.
type CacheLog struct {
	log CacheLogReader
}

// NewCacheLog creates the cache log handler.
func NewCacheLog(log CacheLogReader) *CacheLog {
	return &CacheLog{log: log}
}

// List handles GET /admin/api/cache-log?limit=N.
func (c *CacheLog) List(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	limit := defaultCacheLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(n, maxCacheLogLimit)
	}

	entries, err := c.log.RecentEntries(r.Context(), limit)
	if err != nil {
		slog.Error("list cache log failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load cache log")
		return
	}
	if entries == nil {
		entries = []store.CacheLogEntry{}
	}
	writeJSON(w, http.StatusOK, CacheLogResult{Success: true, Entries: entries})
}
