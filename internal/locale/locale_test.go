package locale

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"pluscode-backend/internal/validation"
)

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Middleware(false)(h).ServeHTTP(rec, req)
	return rec
}

func localeCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			out = append(out, c)
		}
	}
	return out
}

func TestMiddlewareDefaultsAndPersists(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != "en" {
		t.Fatalf("expected default locale, got %q", seen)
	}
	cookies := localeCookies(rec)
	if len(cookies) != 1 {
		t.Fatalf("expected locale cookie to be set, got %d", len(cookies))
	}
	if cookies[0].Value != "en" || cookies[0].Path != "/" || cookies[0].MaxAge != 31536000 {
		t.Fatalf("unexpected cookie %+v", cookies[0])
	}
}

func TestMiddlewareReadsCookieWithoutRewriting(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "de"})
	rec := serve(t, h, req)

	if seen != "de" {
		t.Fatalf("expected unsupported locale passed through, got %q", seen)
	}
	if len(localeCookies(rec)) != 0 {
		t.Fatalf("expected no cookie rewrite when one is present")
	}
}

func TestFromContextWithoutPreference(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := FromContext(req.Context()); got != Default {
		t.Fatalf("expected default, got %q", got)
	}
	if got := FromContext(WithLocale(req.Context(), "pl")); got != "pl" {
		t.Fatalf("expected pl, got %q", got)
	}
}

func TestSetHandler(t *testing.T) {
	h := NewHandler(validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	body, _ := json.Marshal(map[string]string{"locale": "PL"})
	rec := serve(t, http.HandlerFunc(h.Set), httptest.NewRequest(http.MethodPost, "/api/v1/locale", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := localeCookies(rec)
	if len(cookies) != 1 || cookies[0].Value != "pl" {
		t.Fatalf("expected a single pl cookie, got %+v", cookies)
	}

	var resp struct {
		Locale    string `json:"locale"`
		Supported bool   `json:"supported"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Locale != "pl" || !resp.Supported {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSetHandlerRejectsMalformedLocale(t *testing.T) {
	h := NewHandler(validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, body := range []string{`{"locale":"english"}`, `{"locale":""}`, `{"lang":"pl"}`, `not json`} {
		rec := serve(t, http.HandlerFunc(h.Set), httptest.NewRequest(http.MethodPost, "/api/v1/locale", bytes.NewBufferString(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}
