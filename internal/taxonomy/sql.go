// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import (
	"context"
	"database/sql"
	"errors"

	"wisdomia/internal/store"
)

// SQLTransactor runs taxonomy units of work in PostgreSQL transactions.
type SQLTransactor struct {
	db *sql.DB
}

// NewSQLTransactor returns a Transactor backed by db.
func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

// Atomically implements Transactor.
func (t *SQLTransactor) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	return store.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(sqlTx{
			PostStore: store.NewPostStore(tx),
			settings:  store.NewSettingStore(tx),
		})
	})
}

type sqlTx struct {
	*store.PostStore
	settings *store.SettingStore
}

func (t sqlTx) CompareAndSet(ctx context.Context, key, value string, expected int64) (int64, error) {
	v, err := t.settings.CompareAndSet(ctx, key, value, expected)
	if errors.Is(err, store.ErrVersionConflict) {
		return 0, ErrStale
	}
	return v, err
}
