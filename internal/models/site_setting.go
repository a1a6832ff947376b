// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Well-known settings keys.
const (
	SettingSiteName          = "site_name"
	SettingSiteDescription   = "site_description"
	SettingManagedCategories = "managed_categories"
)

// Fallbacks used when a site setting is missing or empty.
const (
	DefaultSiteName        = "Wisdomia"
	DefaultSiteDescription = "A digital sanctuary for stories that matter."
)

// Setting represents a single row of the settings table. Version starts at
// 1 and is bumped on every write.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// SiteInfo is the public site identity served with the home projection.
type SiteInfo struct {
	Name        string `json:"siteName"`
	Description string `json:"siteDescription"`
}

// Info resolves the public site identity with defaults applied.
func (s SiteSettings) Info() SiteInfo {
	return SiteInfo{
		Name:        s.Get(SettingSiteName, DefaultSiteName),
		Description: s.Get(SettingSiteDescription, DefaultSiteDescription),
	}
}
