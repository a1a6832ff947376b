// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"unicode/utf8"

	"wisdomia/internal/models"
)

// Authorizer decides whether the caller may manage categories.
type Authorizer interface {
	IsAdmin(ctx context.Context) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context) bool

// IsAdmin calls f(ctx).
func (f AuthorizerFunc) IsAdmin(ctx context.Context) bool { return f(ctx) }

// Invalidator drops cached pages after a committed taxonomy change.
// Implementations log their own failures.
type Invalidator interface {
	InvalidateTaxonomy(ctx context.Context, entityKey, action string)
}

// Result is the uniform answer of every admin operation. Categories is
// always a freshly read, sorted list, also when the operation failed.
type Result struct {
	Success    bool                     `json:"success"`
	Error      string                   `json:"error,omitempty"`
	Categories []models.ManagedCategory `json:"categories"`
	Reconciled int64                    `json:"reconciled,omitempty"`
}

// AddInput holds the fields of a new category.
type AddInput struct {
	Name   string  `json:"name"`
	NameBn *string `json:"nameBn"`
}

// UpdateInput renames PreviousName to Name and replaces its Bengali name.
type UpdateInput struct {
	PreviousName string  `json:"previousName"`
	Name         string  `json:"name"`
	NameBn       *string `json:"nameBn"`
}

// DeleteInput names the category to remove.
type DeleteInput struct {
	Name string `json:"name"`
}

// Service implements the admin category operations.
type Service struct {
	store *ManagedStore
	tx    Transactor
	auth  Authorizer
	cache Invalidator
}

// NewService wires the admin operations. cache may be nil.
func NewService(store *ManagedStore, tx Transactor, auth Authorizer, cache Invalidator) *Service {
	return &Service{store: store, tx: tx, auth: auth, cache: cache}
}

// List returns the managed categories.
func (s *Service) List(ctx context.Context) Result {
	if !s.auth.IsAdmin(ctx) {
		return s.fail(ctx, "list", newError(KindUnauthorized, MsgUnauthorized))
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return s.fail(ctx, "list", storageError(MsgLoadFailed, err))
	}
	return Result{Success: true, Categories: snap.Categories}
}

// Add appends a category.
func (s *Service) Add(ctx context.Context, in AddInput) Result {
	name, err := s.add(ctx, in)
	if err != nil {
		return s.fail(ctx, "add", err)
	}
	return s.done(ctx, name, "create")
}

func (s *Service) add(ctx context.Context, in AddInput) (string, error) {
	if !s.auth.IsAdmin(ctx) {
		return "", newError(KindUnauthorized, MsgUnauthorized)
	}
	name, err := validName(in.Name)
	if err != nil {
		return "", err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", storageError(MsgLoadFailed, err)
	}
	if find(snap.Categories, name) >= 0 {
		return "", newError(KindConflict, MsgAlreadyExists)
	}
	if findSlug(snap.Categories, Slug(name)) >= 0 {
		return "", newError(KindConflict, MsgSlugTaken)
	}

	list := append(slices.Clone(snap.Categories), models.ManagedCategory{Name: name, NameBn: cleanBn(in.NameBn)})
	err = s.tx.Atomically(ctx, func(tx Tx) error {
		return s.store.writeIn(ctx, tx, list, snap.Version)
	})
	if err != nil {
		return "", writeError(err)
	}
	return name, nil
}

// Update renames a category and moves its posts to the new name.
func (s *Service) Update(ctx context.Context, in UpdateInput) Result {
	name, err := s.update(ctx, in)
	if err != nil {
		return s.fail(ctx, "update", err)
	}
	return s.done(ctx, name, "update")
}

func (s *Service) update(ctx context.Context, in UpdateInput) (string, error) {
	if !s.auth.IsAdmin(ctx) {
		return "", newError(KindUnauthorized, MsgUnauthorized)
	}
	name, err := validName(in.Name)
	if err != nil {
		return "", err
	}
	previous := CanonicalizeName(in.PreviousName)

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", storageError(MsgLoadFailed, err)
	}
	idx := find(snap.Categories, previous)
	if previous == "" || idx < 0 {
		return "", newError(KindNotFound, MsgNotFound)
	}
	if other := find(snap.Categories, name); other >= 0 && other != idx {
		return "", newError(KindConflict, MsgNameTaken)
	}
	if other := findSlug(snap.Categories, Slug(name)); other >= 0 && other != idx {
		return "", newError(KindConflict, MsgSlugTaken)
	}

	old := snap.Categories[idx]
	next := models.ManagedCategory{Name: name, NameBn: cleanBn(in.NameBn)}
	list := slices.Clone(snap.Categories)
	list[idx] = next

	err = s.tx.Atomically(ctx, func(tx Tx) error {
		if err := s.store.writeIn(ctx, tx, list, snap.Version); err != nil {
			return err
		}
		n, err := tx.ReplaceCategory(ctx, old.Name, ref(next))
		if err != nil {
			return err
		}
		slog.Info("category renamed", "from", old.Name, "to", next.Name, "posts", n)
		return nil
	})
	if err != nil {
		return "", writeError(err)
	}
	return name, nil
}

// Delete removes a category and moves its posts to Uncategorized.
func (s *Service) Delete(ctx context.Context, in DeleteInput) Result {
	name, err := s.delete(ctx, in)
	if err != nil {
		return s.fail(ctx, "delete", err)
	}
	return s.done(ctx, name, "delete")
}

func (s *Service) delete(ctx context.Context, in DeleteInput) (string, error) {
	if !s.auth.IsAdmin(ctx) {
		return "", newError(KindUnauthorized, MsgUnauthorized)
	}
	name := CanonicalizeName(in.Name)
	if name == "" {
		return "", newError(KindValidation, MsgNameRequired)
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return "", storageError(MsgLoadFailed, err)
	}
	idx := find(snap.Categories, name)
	if idx < 0 {
		return "", newError(KindNotFound, MsgNotFound)
	}

	removed := snap.Categories[idx]
	list := slices.Delete(slices.Clone(snap.Categories), idx, idx+1)

	err = s.tx.Atomically(ctx, func(tx Tx) error {
		if err := s.store.writeIn(ctx, tx, list, snap.Version); err != nil {
			return err
		}
		n, err := tx.ReplaceCategory(ctx, removed.Name, models.Uncategorized())
		if err != nil {
			return err
		}
		slog.Info("category deleted", "name", removed.Name, "posts", n)
		return nil
	})
	if err != nil {
		return "", writeError(err)
	}
	return removed.Name, nil
}

// Reconcile makes every post agree with the managed list again: posts of a
// managed category get its canonical spelling, Bengali name and topic
// slug, and posts of unknown categories move to Uncategorized. Running it
// twice changes nothing the second time.
func (s *Service) Reconcile(ctx context.Context) Result {
	n, err := s.reconcile(ctx)
	if err != nil {
		return s.fail(ctx, "reconcile", err)
	}
	res := s.done(ctx, "all", "reconcile")
	res.Reconciled = n
	return res
}

func (s *Service) reconcile(ctx context.Context) (int64, error) {
	if !s.auth.IsAdmin(ctx) {
		return 0, newError(KindUnauthorized, MsgUnauthorized)
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, storageError(MsgLoadFailed, err)
	}
	managed := snap.Categories
	if snap.Version == 0 {
		// Never saved: the site runs on the base categories.
		managed = BaseList()
	}

	var total int64
	err = s.tx.Atomically(ctx, func(tx Tx) error {
		keep := make([]string, 0, len(managed)+1)
		for _, c := range managed {
			n, err := tx.ReplaceCategory(ctx, c.Name, ref(c))
			if err != nil {
				return err
			}
			total += n
			keep = append(keep, c.Name)
		}
		if find(managed, models.UncategorizedName) < 0 {
			n, err := tx.ReplaceCategory(ctx, models.UncategorizedName, models.Uncategorized())
			if err != nil {
				return err
			}
			total += n
			keep = append(keep, models.UncategorizedName)
		}
		n, err := tx.ReassignUnlisted(ctx, keep, models.Uncategorized())
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return 0, storageError(MsgReconcileFailed, err)
	}
	slog.Info("posts reconciled with managed categories", "posts", total)
	return total, nil
}

// Resolve maps a category typed on a post to the reference stored on it.
// A managed category supplies its own spelling and Bengali name; any other
// name is canonicalized and keeps the given Bengali name.
func (s *Service) Resolve(ctx context.Context, raw string, nameBn *string) models.CategoryRef {
	name := CanonicalizeName(raw)
	if name == "" {
		return models.CategoryRef{}
	}
	list := s.store.Read(ctx)
	if idx := find(list, name); idx >= 0 {
		return ref(list[idx])
	}
	return models.CategoryRef{Name: name, NameBn: cleanBn(nameBn), TopicSlug: Slug(name)}
}

// done invalidates caches after a committed change and reports success.
func (s *Service) done(ctx context.Context, key, action string) Result {
	if s.cache != nil {
		s.cache.InvalidateTaxonomy(ctx, key, action)
	}
	return Result{Success: true, Categories: s.store.Read(ctx)}
}

// fail logs err and converts it into a failed Result.
func (s *Service) fail(ctx context.Context, op string, err error) Result {
	var te *Error
	if !errors.As(err, &te) {
		te = storageError(MsgSaveFailed, err)
	}

	switch te.Kind {
	case KindStorage:
		slog.Error("category operation failed", "op", op, "kind", te.Kind, "error", err)
	default:
		slog.Warn("category operation rejected", "op", op, "kind", te.Kind, "error", te.Message)
	}

	res := Result{Error: te.Message, Categories: []models.ManagedCategory{}}
	if te.Kind != KindUnauthorized {
		res.Categories = s.store.Read(ctx)
	}
	return res
}

// validName canonicalizes a primary name and checks its length. The name
// must also yield a topic slug, otherwise no page could link to it; a
// Bengali-only name belongs in NameBn.
func validName(raw string) (string, error) {
	name := CanonicalizeName(raw)
	if name == "" {
		return "", newError(KindValidation, MsgNameRequired)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", newError(KindValidation, MsgNameTooLong)
	}
	if Slug(name) == "" {
		return "", newError(KindValidation, MsgSlugRequired)
	}
	return name, nil
}

// writeError keeps conflicts visible and reports everything else as a
// failed save.
func writeError(err error) error {
	if errors.Is(err, ErrStale) {
		return ErrStale
	}
	return storageError(MsgSaveFailed, err)
}
