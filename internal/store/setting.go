// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wisdomia/internal/models"
)

// ErrVersionConflict is returned by CompareAndSet when the stored version
// does not match the expected one.
var ErrVersionConflict = errors.New("setting version conflict")

// SettingStore manages the key/value settings table.
type SettingStore struct {
	db DBTX
}

// NewSettingStore returns a new SettingStore backed by the given database
// or transaction.
func NewSettingStore(db DBTX) *SettingStore {
	return &SettingStore{db: db}
}

// Get returns a single setting row, or nil if the key has never been written.
func (s *SettingStore) Get(ctx context.Context, key string) (*models.Setting, error) {
	st := &models.Setting{}
	err := s.db.QueryRowContext(ctx, `
		SELECT key_name, value, version, updated_at
		FROM settings WHERE key_name = $1
	`, key).Scan(&st.Key, &st.Value, &st.Version, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return st, nil
}

// All returns every setting as a convenience map.
func (s *SettingStore) All(ctx context.Context) (models.SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key_name, value FROM settings ORDER BY key_name`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(models.SiteSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Set upserts a single setting unconditionally and bumps its version.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key_name, value, version, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (key_name)
		DO UPDATE SET value = EXCLUDED.value,
		              version = settings.version + 1,
		              updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// CompareAndSet writes value only if the stored version equals expected and
// returns the new version. An expected version of 0 means the key must not
// exist yet. A mismatch returns ErrVersionConflict.
func (s *SettingStore) CompareAndSet(ctx context.Context, key, value string, expected int64) (int64, error) {
	var row *sql.Row
	if expected == 0 {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO settings (key_name, value, version, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (key_name) DO NOTHING
			RETURNING version`,
			key, value, time.Now(),
		)
	} else {
		row = s.db.QueryRowContext(ctx, `
			UPDATE settings
			SET value = $2, version = version + 1, updated_at = $4
			WHERE key_name = $1 AND version = $3
			RETURNING version`,
			key, value, expected, time.Now(),
		)
	}

	var version int64
	err := row.Scan(&version)
	if err == sql.ErrNoRows {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("compare and set %s: %w", key, err)
	}
	return version, nil
}
