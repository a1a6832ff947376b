// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
)

const (
	maxSiteNameLength        = 100
	maxSiteDescriptionLength = 300

	msgSettingsFailed     = "Failed to update settings"
	msgSettingsLoadFailed = "Failed to load settings"
)

// SiteSettingsStore reads and writes the site identity settings.
type SiteSettingsStore interface {
	SiteSettingsReader
	Set(ctx context.Context, key, value string) error
}

// SettingsInvalidator drops pages that show site settings.
type SettingsInvalidator interface {
	InvalidateSettings(ctx context.Context, key, action string)
}

// SettingsInput is the body of PUT /admin/api/settings.
type SettingsInput struct {
	SiteName        string `json:"siteName"`
	SiteDescription string `json:"siteDescription"`
}

// SettingsResult answers both settings endpoints.
type SettingsResult struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	Settings *models.SiteInfo `json:"settings,omitempty"`
}

// Settings serves /admin/api/settings.
type Settings struct {
	store SiteSettingsStore
	cache SettingsInvalidator
}

// NewSettings creates the settings handler group. cache may be nil.
func NewSettings(store SiteSettingsStore, cache SettingsInvalidator) *Settings {
	return &Settings{store: store, cache: cache}
}

// Get handles GET /admin/api/settings.
func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.load(r.Context())
	if err != nil {
		slog.Error("load settings failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, SettingsResult{Error: msgSettingsLoadFailed})
		return
	}
	writeJSON(w, http.StatusOK, SettingsResult{Success: true, Settings: &info})
}

// Update handles PUT /admin/api/settings. Empty values fall back to the
// defaults on read, so clearing a field restores its default.
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !middleware.IsAdmin(ctx) {
		writeJSON(w, http.StatusForbidden, SettingsResult{Error: "Unauthorized"})
		return
	}

	var in SettingsInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.SiteDescription = strings.TrimSpace(in.SiteDescription)

	var problems []string
	if utf8.RuneCountInString(in.SiteName) > maxSiteNameLength {
		problems = append(problems, "site name is too long")
	}
	if utf8.RuneCountInString(in.SiteDescription) > maxSiteDescriptionLength {
		problems = append(problems, "site description is too long")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, SettingsResult{Error: "Validation failed: " + strings.Join(problems, ", ")})
		return
	}

	for _, kv := range [][2]string{
		{models.SettingSiteName, in.SiteName},
		{models.SettingSiteDescription, in.SiteDescription},
	} {
		if err := h.store.Set(ctx, kv[0], kv[1]); err != nil {
			slog.Error("update setting failed", "key", kv[0], "error", err)
			writeJSON(w, http.StatusInternalServerError, SettingsResult{Error: msgSettingsFailed})
			return
		}
		if h.cache != nil {
			h.cache.InvalidateSettings(ctx, kv[0], "update")
		}
	}

	info, err := h.load(ctx)
	if err != nil {
		slog.Warn("reload settings failed", "error", err)
		info = models.SiteSettings{
			models.SettingSiteName:        in.SiteName,
			models.SettingSiteDescription: in.SiteDescription,
		}.Info()
	}
	slog.Info("site settings updated", "site_name", info.Name)
	writeJSON(w, http.StatusOK, SettingsResult{Success: true, Settings: &info})
}

func (h *Settings) load(ctx context.Context) (models.SiteInfo, error) {
	settings, err := h.store.All(ctx)
	if err != nil {
		return models.SiteInfo{}, err
	}
	return settings.Info(), nil
}
