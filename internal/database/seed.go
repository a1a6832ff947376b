// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"wisdomia/internal/models"
)

// Default development credentials. Only used by Seed.
const (
	seedAdminEmail    = "admin@wisdomia.local"
	seedAdminPassword = "admin"
)

// AdminCreator creates a user with a hashed password.
type AdminCreator interface {
	Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error)
}

// Seed populates the database with initial development data.
// It creates a default admin user through users if none exists and stores
// categories as the initial managed list if no list has been saved yet.
// The list is written as given, callers pass it already sorted.
// The admin will be prompted to set up 2FA on first login.
func Seed(db *sql.DB, users AdminCreator, categories []models.ManagedCategory) error {
	if err := seedAdmin(db, users); err != nil {
		return err
	}
	return seedCategories(db, categories)
}

func seedAdmin(db *sql.DB, users AdminCreator) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	if _, err := users.Create(context.Background(), seedAdminEmail, seedAdminPassword, "Admin", models.RoleAdmin); err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", seedAdminEmail,
		"password", seedAdminPassword,
	)
	return nil
}

func seedCategories(db *sql.DB, categories []models.ManagedCategory) error {
	if categories == nil {
		categories = []models.ManagedCategory{}
	}
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("seed marshal categories: %w", err)
	}

	res, err := db.Exec(`
		INSERT INTO settings (key_name, value)
		VALUES ($1, $2)
		ON CONFLICT (key_name) DO NOTHING
	`, models.SettingManagedCategories, string(payload))
	if err != nil {
		return fmt.Errorf("seed insert categories: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("database seeded with base categories", "count", len(categories))
	}
	return nil
}
