// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wisdomia/internal/handlers"
	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
	"wisdomia/internal/session"
	"wisdomia/internal/taxonomy"
)

type stubCategories struct{ calls int }

func (s *stubCategories) result() taxonomy.Result {
	s.calls++
	return taxonomy.Result{Success: true, Categories: []models.ManagedCategory{{Name: "Business"}}}
}

func (s *stubCategories) List(context.Context) taxonomy.Result { return s.result() }
func (s *stubCategories) Add(context.Context, taxonomy.AddInput) taxonomy.Result { return s.result() }
func (s *stubCategories) Update(context.Context, taxonomy.UpdateInput) taxonomy.Result { return s.result() }
func (s *stubCategories) Delete(context.Context, taxonomy.DeleteInput) taxonomy.Result { return s.result() }
func (s *stubCategories) Reconcile(context.Context) taxonomy.Result { return s.result() }

type stubTopics struct{}

func (stubTopics) Summaries(context.Context) ([]models.CategorySummary, error) {
	return []models.CategorySummary{{Name: "Business", Slug: "business", CanonicalName: "Business", Count: 1}}, nil
}

func (t stubTopics) Menu(ctx context.Context) taxonomy.MenuResult {
	return taxonomy.MenuResult{Success: true, Links: []models.MenuLink{{Name: "Business", Href: "/topics/business", Count: 1}}}
}

func (t stubTopics) BySlug(ctx context.Context, slug string) (models.CategorySummary, bool, error) {
	sums, _ := t.Summaries(ctx)
	return sums[0], slug == "business", nil
}

type stubPosts struct{}

func (stubPosts) ListPublished(context.Context, int) ([]models.Post, error) { return []models.Post{}, nil }
func (stubPosts) ListPublishedByCategory(context.Context, string) ([]models.Post, error) {
	return []models.Post{}, nil
}

type stubSettings struct{}

func (stubSettings) All(context.Context) (models.SiteSettings, error) { return models.SiteSettings{}, nil }

type testServer struct {
	handler    http.Handler
	sessions   *session.Store
	categories *stubCategories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := session.NewStore(client, time.Hour, false)
	cats := &stubCategories{}
	h := New(Options{
		Sessions:     sessions,
		LoginLimiter: middleware.NewRateLimiter(client, "login", 2, time.Minute),
	}, Handlers{
		Auth:       handlers.NewAuth(sessions, nil, "Wisdomia"),
		Categories: handlers.NewCategories(cats),
		Posts:      handlers.NewPosts(nil, nil, nil),
		Public:     handlers.NewPublic(stubTopics{}, stubPosts{}, stubSettings{}, nil, "Wisdomia"),
		CacheLog:   handlers.NewCacheLog(nil),
		Settings:   handlers.NewSettings(nil, nil),
	})
	return &testServer{handler: h, sessions: sessions, categories: cats}
}

// sessionCookie creates a stored session and returns its cookie.
func (s *testServer) sessionCookie(t *testing.T, role models.Role, twoFADone bool) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	_, err := s.sessions.Create(context.Background(), w, &session.Data{
		UserID: uuid.New(), Email: "admin@wisdomia.local", Role: role, TwoFADone: twoFADone,
	})
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}
	return w.Result().Cookies()[0]
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
		if c.Name == middleware.CSRFCookieName {
			req.Header.Set(middleware.CSRFHeaderName, c.Value)
		}
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

var csrfCookie = &http.Cookie{Name: middleware.CSRFCookieName, Value: "router-test-token"}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/api/menu/categories", http.StatusOK},
		{"/api/topics", http.StatusOK},
		{"/api/topics/business", http.StatusOK},
		{"/api/topics/unknown", http.StatusNotFound},
		{"/api/home", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := srv.do(http.MethodGet, tt.path, "")
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
				t.Errorf("content-type: got %q", rec.Header().Get("Content-Type"))
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request ID")
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodPost, "/api/topics", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestAdminCategoryAccess(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		cookies    []*http.Cookie
		wantStatus int
		wantCalled bool
	}{
		{"no session", nil, http.StatusUnauthorized, false},
		{"2fa pending", []*http.Cookie{srv.sessionCookie(t, models.RoleAdmin, false)}, http.StatusForbidden, false},
		{"editor reaches the service", []*http.Cookie{srv.sessionCookie(t, models.RoleEditor, true)}, http.StatusOK, true},
		{"admin", []*http.Cookie{srv.sessionCookie(t, models.RoleAdmin, true)}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := srv.categories.calls
			rec := srv.do(http.MethodGet, "/admin/api/categories", "", tt.cookies...)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if called := srv.categories.calls > before; called != tt.wantCalled {
				t.Errorf("service called: got %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestAdminAuxiliaryRoutesNeedSession(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/admin/api/settings", "/admin/api/cache-log"} {
		rec := srv.do(http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: got %d, want 401", path, rec.Code)
		}
	}

	// Editors pass the session checks and are refused by the handler.
	rec := srv.do(http.MethodGet, "/admin/api/cache-log", "", srv.sessionCookie(t, models.RoleEditor, true))
	if rec.Code != http.StatusForbidden {
		t.Errorf("editor cache log: got %d, want 403", rec.Code)
	}
}

func TestAdminCategoryMutationsNeedCSRF(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.sessionCookie(t, models.RoleAdmin, true)

	rec := srv.do(http.MethodPost, "/admin/api/categories", `{"name":"Travel"}`, admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("without token: got %d, want 403", rec.Code)
	}

	routes := []struct{ method, path, body string }{
		{http.MethodPost, "/admin/api/categories", `{"name":"Travel"}`},
		{http.MethodPut, "/admin/api/categories", `{"previousName":"Travel","name":"Trips"}`},
		{http.MethodDelete, "/admin/api/categories", `{"name":"Trips"}`},
		{http.MethodPost, "/admin/api/categories/reconcile", ``},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := srv.do(rt.method, rt.path, rt.body, admin, csrfCookie)
			if rec.Code != http.StatusOK {
				t.Errorf("status: got %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTwoFactorRoutesNeedSession(t *testing.T) {
	srv := newTestServer(t)

	if rec := srv.do(http.MethodGet, "/admin/2fa/setup", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("setup: got %d, want 401", rec.Code)
	}
	if rec := srv.do(http.MethodPost, "/admin/2fa/verify", `{"code":"1"}`, csrfCookie); rec.Code != http.StatusUnauthorized {
		t.Errorf("verify: got %d, want 401", rec.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t)

	// Malformed bodies are rejected before any user lookup, which is
	// enough to exercise the limiter in front of the handler.
	for i := 0; i < 2; i++ {
		if rec := srv.do(http.MethodPost, "/admin/login", "{", csrfCookie); rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: got %d, want 400", i+1, rec.Code)
		}
	}
	rec := srv.do(http.MethodPost, "/admin/login", "{", csrfCookie)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third attempt: got %d, want 429", rec.Code)
	}
}

func TestThrottleWithoutLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	throttle(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want pass-through", rec.Code)
	}
}
