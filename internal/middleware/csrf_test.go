// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func csrfCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("CSRF cookie not set")
	return nil
}

func TestNewCSRFSecureFlag(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{"secure true", true},
		{"secure false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			rr := httptest.NewRecorder()
			NewCSRF(tt.secure)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/api/categories", nil))

			c := csrfCookie(t, rr)
			if c.Secure != tt.secure {
				t.Errorf("cookie Secure: got %v, want %v", c.Secure, tt.secure)
			}
			if c.SameSite != http.SameSiteStrictMode {
				t.Errorf("cookie SameSite: got %v, want StrictMode", c.SameSite)
			}
			if len(c.Value) != csrfTokenLength*2 {
				t.Errorf("token length: got %d, want %d", len(c.Value), csrfTokenLength*2)
			}
		})
	}
}

func TestCSRFStateChangingRequests(t *testing.T) {
	next, _ := okHandler()
	handler := NewCSRF(false)(next)

	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, httptest.NewRequest(http.MethodGet, "/admin/api/categories", nil))
	cookie := csrfCookie(t, getRR)

	tests := []struct {
		name       string
		method     string
		header     string
		wantStatus int
	}{
		{"post without token", http.MethodPost, "", http.StatusForbidden},
		{"post with wrong token", http.MethodPost, "deadbeef", http.StatusForbidden},
		{"post with matching token", http.MethodPost, cookie.Value, http.StatusOK},
		{"put with matching token", http.MethodPut, cookie.Value, http.StatusOK},
		{"delete without token", http.MethodDelete, "", http.StatusForbidden},
		{"head is safe", http.MethodHead, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/admin/api/categories", nil)
			req.AddCookie(cookie)
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestCSRFRejectsPostWithoutCookie(t *testing.T) {
	next, called := okHandler()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.Header.Set(CSRFHeaderName, "anything")
	rr := httptest.NewRecorder()
	NewCSRF(false)(next).ServeHTTP(rr, req)

	if *called {
		t.Error("next handler should not have been called")
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestCSRFKeepsExistingToken(t *testing.T) {
	next, _ := okHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/categories", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	rr := httptest.NewRecorder()
	NewCSRF(false)(next).ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 0 {
		t.Error("expected no new CSRF cookie when one is present")
	}
	if got := GetCSRFToken(req); got != "existing" {
		t.Errorf("GetCSRFToken: got %q, want %q", got, "existing")
	}
}
