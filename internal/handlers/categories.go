// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"wisdomia/internal/taxonomy"
)

// CategoryService is the admin category API. Every operation answers with
// the uniform result shape, including authorization failures.
type CategoryService interface {
	List(ctx context.Context) taxonomy.Result
	Add(ctx context.Context, in taxonomy.AddInput) taxonomy.Result
	Update(ctx context.Context, in taxonomy.UpdateInput) taxonomy.Result
	Delete(ctx context.Context, in taxonomy.DeleteInput) taxonomy.Result
	Reconcile(ctx context.Context) taxonomy.Result
}

// Categories serves /admin/api/categories. Responses are always 200 with
// the result body; only undecodable requests get 400.
type Categories struct {
	svc CategoryService
}

// NewCategories creates the category handler group.
func NewCategories(svc CategoryService) *Categories {
	return &Categories{svc: svc}
}

// List handles GET /admin/api/categories.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.svc.List(r.Context()))
}

// Add handles POST /admin/api/categories.
func (c *Categories) Add(w http.ResponseWriter, r *http.Request) {
	var in taxonomy.AddInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, c.svc.Add(r.Context(), in))
}

// Update handles PUT /admin/api/categories.
func (c *Categories) Update(w http.ResponseWriter, r *http.Request) {
	var in taxonomy.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, c.svc.Update(r.Context(), in))
}

// Delete handles DELETE /admin/api/categories.
func (c *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	var in taxonomy.DeleteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, c.svc.Delete(r.Context(), in))
}

// Reconcile handles POST /admin/api/categories/reconcile.
func (c *Categories) Reconcile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.svc.Reconcile(r.Context()))
}
