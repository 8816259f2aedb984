package admin

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pluscode-backend/internal/auth"
	"pluscode-backend/internal/validation"
)

func newTestHandler(t *testing.T) (*Handler, *auth.Manager) {
	t.Helper()
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	manager := auth.NewManager("secret", 15*time.Minute, time.Hour)
	h := NewHandler(Credentials{User: "admin", PasswordHash: hash}, manager, true, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, manager
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestLoginSetsSessionCookies(t *testing.T) {
	h, manager := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewBufferString(`{"username":"admin","password":"correct horse battery"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	cookies := cookiesByName(rec)
	access, refresh := cookies[auth.AccessCookie], cookies[auth.RefreshCookie]
	if access == nil || refresh == nil {
		t.Fatalf("expected both cookies, got %v", cookies)
	}
	if !access.HttpOnly || !access.Secure || access.MaxAge != 900 || refresh.Path != refreshPath {
		t.Fatalf("unexpected cookie attributes %+v %+v", access, refresh)
	}
	claims, err := manager.ParseAccess(access.Value)
	if err != nil || claims.Role != auth.RoleAdmin || claims.Subject != "admin" {
		t.Fatalf("unexpected access claims %+v %v", claims, err)
	}
}

func TestLoginRejects(t *testing.T) {
	h, _ := newTestHandler(t)
	cases := []struct {
		body   string
		status int
	}{
		{`{"username":"admin","password":"wrong password"}`, http.StatusUnauthorized},
		{`{"username":"root","password":"correct horse battery"}`, http.StatusUnauthorized},
		{`{"username":"admin"}`, http.StatusBadRequest},
		{`{"username":"admin","password":"x","extra":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewBufferString(tc.body)))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.status, rec.Code)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("%s: expected no cookies", tc.body)
		}
	}

	unconfigured := NewHandler(Credentials{User: "admin"}, nil, false, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	unconfigured.Login(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"username":"admin","password":"x"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	h, manager := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", rec.Code)
	}

	access, _ := manager.NewAccessToken("admin", auth.RoleAdmin)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: access})
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected access token rejected as refresh, got %d", rec.Code)
	}

	refresh, _ := manager.NewRefreshToken("admin", auth.RoleAdmin)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: refresh})
	rec = httptest.NewRecorder()
	h.Refresh(rec, req)
	if rec.Code != http.StatusOK || cookiesByName(rec)[auth.AccessCookie] == nil {
		t.Fatalf("expected new session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("expected cleared cookie, got %+v", c)
		}
	}
	if len(rec.Result().Cookies()) != 2 {
		t.Fatalf("expected both cookies cleared")
	}
}
