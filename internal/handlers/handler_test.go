// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides the in-memory fakes and request helpers shared
// by the handler tests.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
	"wisdomia/internal/session"
	"wisdomia/internal/slug"
	"wisdomia/internal/store"
	"wisdomia/internal/taxonomy"
)

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

// doJSON sends body (marshalled unless it is a string) through h and
// returns the recorder.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, sess *session.Data) *httptest.ResponseRecorder {
	t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the recorder body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type: got %q, want JSON", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func editorSession() *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "editor@wisdomia.local",
		DisplayName: "Nadia Rahman",
		Role:        models.RoleEditor,
		TwoFADone:   true,
	}
}

// ---------- categories ----------

type fakeCategoryService struct {
	result taxonomy.Result
	calls  []string
	add    taxonomy.AddInput
	update taxonomy.UpdateInput
	del    taxonomy.DeleteInput
}

func (f *fakeCategoryService) List(context.Context) taxonomy.Result {
	f.calls = append(f.calls, "list")
	return f.result
}

func (f *fakeCategoryService) Add(_ context.Context, in taxonomy.AddInput) taxonomy.Result {
	f.calls = append(f.calls, "add")
	f.add = in
	return f.result
}

func (f *fakeCategoryService) Update(_ context.Context, in taxonomy.UpdateInput) taxonomy.Result {
	f.calls = append(f.calls, "update")
	f.update = in
	return f.result
}

func (f *fakeCategoryService) Delete(_ context.Context, in taxonomy.DeleteInput) taxonomy.Result {
	f.calls = append(f.calls, "delete")
	f.del = in
	return f.result
}

func (f *fakeCategoryService) Reconcile(context.Context) taxonomy.Result {
	f.calls = append(f.calls, "reconcile")
	return f.result
}

// ---------- posts ----------

type fakePostRepo struct {
	mu      sync.Mutex
	posts   map[string]*models.Post
	failAll error
	// raceSlug makes Create report a unique violation, as if another
	// request inserted the slug after SlugExists ran.
	raceSlug bool
}

func newFakePostRepo(posts ...models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[string]*models.Post{}}
	for i := range posts {
		p := posts[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.posts[p.Slug] = &p
	}
	return r
}

func (r *fakePostRepo) List(context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := []models.Post{}
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePostRepo) FindBySlug(_ context.Context, s string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	p, ok := r.posts[s]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) SlugExists(_ context.Context, s string, exclude uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return false, r.failAll
	}
	p, ok := r.posts[s]
	return ok && p.ID != exclude, nil
}

func (r *fakePostRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	if r.raceSlug {
		return nil, store.ErrDuplicateSlug
	}
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.posts[cp.Slug] = &cp
	out := cp
	return &out, nil
}

func (r *fakePostRepo) Update(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	for s, existing := range r.posts {
		if existing.ID == p.ID {
			cp := *p
			delete(r.posts, s)
			r.posts[cp.Slug] = &cp
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakePostRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	for s, p := range r.posts {
		if p.ID == id {
			delete(r.posts, s)
		}
	}
	return nil
}

func (r *fakePostRepo) get(s string) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[s]
}

// fakeResolver treats "Business" as a managed category with a Bengali name
// and canonicalizes everything else by trimming.
type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, raw string, nameBn *string) models.CategoryRef {
	name := strings.TrimSpace(raw)
	if strings.EqualFold(name, "business") {
		return models.CategoryRef{Name: "Business", NameBn: strPtr("ব্যবসা"), TopicSlug: "business"}
	}
	return models.CategoryRef{Name: name, NameBn: nameBn, TopicSlug: slug.Topic(name)}
}

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) InvalidatePost(_ context.Context, s, action string) {
	f.calls = append(f.calls, action+":"+s)
}

// ---------- public ----------

type fakeProjection struct {
	sums []models.CategorySummary
	err  error
	hits int
}

func (f *fakeProjection) Summaries(context.Context) ([]models.CategorySummary, error) {
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	return f.sums, nil
}

func (f *fakeProjection) Menu(ctx context.Context) taxonomy.MenuResult {
	sums, err := f.Summaries(ctx)
	if err != nil {
		return taxonomy.MenuResult{Error: taxonomy.MsgMenuFailed, Links: []models.MenuLink{}}
	}
	links := []models.MenuLink{}
	for _, s := range sums {
		links = append(links, models.MenuLink{Name: s.Name, Href: "/topics/" + s.Slug, Count: s.Count})
	}
	return taxonomy.MenuResult{Success: true, Links: links}
}

func (f *fakeProjection) BySlug(ctx context.Context, s string) (models.CategorySummary, bool, error) {
	sums, err := f.Summaries(ctx)
	if err != nil {
		return models.CategorySummary{}, false, err
	}
	for _, sum := range sums {
		if sum.Slug == s {
			return sum, true, nil
		}
	}
	return models.CategorySummary{}, false, nil
}

type fakePublished struct {
	posts []models.Post
	err   error
	limit int
	byCat string
}

func (f *fakePublished) ListPublished(_ context.Context, limit int) ([]models.Post, error) {
	f.limit = limit
	return f.posts, f.err
}

func (f *fakePublished) ListPublishedByCategory(_ context.Context, category string) ([]models.Post, error) {
	f.byCat = category
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Post{}
	for _, p := range f.posts {
		if p.InCategory(category) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSettings struct {
	values models.SiteSettings
	err    error
}

func (f fakeSettings) All(context.Context) (models.SiteSettings, error) {
	return f.values, f.err
}

// fakePages is an in-memory page store. With moving set, every
// generation handed out is already outdated, as if a mutation always
// invalidated the tags while the page was being built.
type fakePages struct {
	data   map[string][]byte
	tags   map[string][]string
	gen    int64
	moving bool
}

func newFakePages() *fakePages {
	return &fakePages{data: map[string][]byte{}, tags: map[string][]string{}}
}

func (f *fakePages) Get(_ context.Context, key string) ([]byte, bool) {
	b, ok := f.data[key]
	return b, ok
}

func (f *fakePages) Generation(context.Context, ...string) int64 {
	g := f.gen
	if f.moving {
		f.gen++
	}
	return g
}

func (f *fakePages) SetTagged(_ context.Context, key string, data []byte, gen int64, tags ...string) {
	if gen != f.gen {
		return
	}
	f.data[key] = data
	f.tags[key] = tags
}
