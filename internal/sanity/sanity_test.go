package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestQueryPassesParamsAsJSON(t *testing.T) {
	var gotPath, gotQuery, gotSlug, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ms":3,"result":{"slug":"zabka","title":"Żabka"}}`))
	}))
	defer srv.Close()

	c := New(Options{ProjectID: "proj", Dataset: "production", APIVersion: "2024-01-01", Token: "secret", BaseURL: srv.URL})

	var out struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
	}
	err := c.Query(context.Background(), `*[_type == "caseStudy" && slug.current == $slug][0]`, map[string]any{"slug": "zabka"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v2024-01-01/data/query/production" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "$slug") {
		t.Fatalf("expected query text untouched, got %q", gotQuery)
	}
	if gotSlug != `"zabka"` {
		t.Fatalf("expected JSON encoded param, got %q", gotSlug)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if out.Title != "Żabka" {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestQueryNullResultLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null}`))
	}))
	defer srv.Close()

	c := New(Options{ProjectID: "proj", BaseURL: srv.URL})
	var out *struct{ Slug string }
	if err := c.Query(context.Background(), "*[0]", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil result")
	}
}

func TestQueryErrors(t *testing.T) {
	if err := New(Options{}).Query(context.Background(), "*", nil, &struct{}{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"expected ']'","type":"queryParseError"}}`))
	}))
	defer srv.Close()

	err := New(Options{ProjectID: "proj", BaseURL: srv.URL}).Query(context.Background(), "*[", nil, &struct{}{})
	if err == nil || !strings.Contains(err.Error(), "expected ']'") {
		t.Fatalf("expected api error description, got %v", err)
	}
}

func TestQueryURLUsesCDNHost(t *testing.T) {
	c := New(Options{ProjectID: "proj", UseCDN: true})
	u, err := c.queryURL("*", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(u, "https://proj.apicdn.sanity.io/v2024-01-01/data/query/production?") {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{"_type": "caseStudy", "slug": map[string]string{"current": "acme"}})
	header := Sign(payload, "shh", time.UnixMilli(1700000000000))

	if !strings.HasPrefix(header, "t=1700000000000,v1=") {
		t.Fatalf("unexpected header %q", header)
	}
	if err := VerifySignature(payload, header, "shh"); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	payload := []byte(`{"_type":"insight"}`)
	header := Sign(payload, "shh", time.Now())

	cases := map[string]struct {
		payload []byte
		header  string
		secret  string
	}{
		"wrong secret":   {payload, header, "other"},
		"tampered body":  {[]byte(`{"_type":"caseStudy"}`), header, "shh"},
		"empty secret":   {payload, header, ""},
		"missing header": {payload, "", "shh"},
		"garbage header": {payload, "v1=abc", "shh"},
		"non numeric ts": {payload, "t=abc,v1=xyz", "shh"},
	}
	for name, tc := range cases {
		if err := VerifySignature(tc.payload, tc.header, tc.secret); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
}
