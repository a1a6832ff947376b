// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package taxonomy

import "fmt"

// Kind classifies taxonomy failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// User-facing messages. They are returned verbatim to the admin UI.
const (
	MsgUnauthorized    = "Unauthorized"
	MsgNameRequired    = "Category name is required"
	MsgNameTooLong     = "Category name is too long (max 100 characters)"
	MsgAlreadyExists   = "Category already exists"
	MsgNotFound        = "Category not found"
	MsgNameTaken       = "Another category already uses this name"
	MsgSlugRequired    = "Category name must contain at least one English letter or digit"
	MsgSlugTaken       = "Another category already uses this URL"
	MsgStale           = "Categories were changed by someone else, reload and try again"
	MsgLoadFailed      = "Failed to load categories"
	MsgSaveFailed      = "Failed to save categories"
	MsgMenuFailed      = "Failed to fetch categories"
	MsgReconcileFailed = "Failed to reconcile posts"
)

// MaxNameLength is the longest accepted category name, in characters.
const MaxNameLength = 100

// Error is a taxonomy failure with a message safe to show to admins and an
// optional wrapped cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, ignoring causes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// ErrStale is returned when the stored list changed since it was loaded.
var ErrStale = &Error{Kind: KindConflict, Message: MsgStale}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func storageError(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}
