package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBuildContactHTMLEscapesInput(t *testing.T) {
	html, err := BuildContactHTML(ContactMessage{
		Name:    "Ann <script>alert(1)</script>",
		Email:   "ann@example.com",
		Message: "Hello\nworld",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected submitter input escaped, got %s", html)
	}
	if !strings.Contains(html, "mailto:ann@example.com") {
		t.Fatalf("expected mailto link, got %s", html)
	}
	if strings.Contains(html, "Company:") {
		t.Fatalf("expected company row omitted when empty")
	}

	withCompany, err := BuildContactHTML(ContactMessage{Name: "Ann", Email: "a@b.co", Company: "Acme", Message: "Hi there team"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(withCompany, "Acme") {
		t.Fatalf("expected company row")
	}
}

func TestSubject(t *testing.T) {
	if got := (ContactMessage{Name: " Ann "}).Subject(); got != "New Contact Form Submission from Ann" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestSplitMailbox(t *testing.T) {
	name, addr := splitMailbox("PlusCode Contact Form <noreply@pluscode.io>")
	if name != "PlusCode Contact Form" || addr != "noreply@pluscode.io" {
		t.Fatalf("unexpected split %q %q", name, addr)
	}
	name, addr = splitMailbox("noreply@pluscode.io")
	if name != "" || addr != "noreply@pluscode.io" {
		t.Fatalf("unexpected split %q %q", name, addr)
	}
}

func TestBrevoSendContact(t *testing.T) {
	var got brevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<msg_1@brevo>"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("key", "PlusCode Contact Form <noreply@pluscode.io>", "contact@pluscode.io", true)
	c.endpoint = srv.URL
	c.httpClient = srv.Client()

	id, err := c.SendContact(context.Background(), ContactMessage{Name: "Ann", Email: "ann@example.com", Message: "Hello there"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "<msg_1@brevo>" {
		t.Fatalf("unexpected id %q", id)
	}
	if got.Sender.Email != "noreply@pluscode.io" || got.To[0].Email != "contact@pluscode.io" {
		t.Fatalf("unexpected addressing %+v", got)
	}
	if got.ReplyTo == nil || got.ReplyTo.Email != "ann@example.com" {
		t.Fatalf("expected reply-to submitter, got %+v", got.ReplyTo)
	}
	if got.Subject != "New Contact Form Submission from Ann" || got.Headers["X-Sib-Sandbox"] != "drop" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestBrevoSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewBrevoClient("key", "noreply@pluscode.io", "contact@pluscode.io", false)
	c.endpoint = srv.URL
	c.httpClient = srv.Client()

	if _, err := c.SendContact(context.Background(), ContactMessage{Name: "Ann", Email: "ann@example.com", Message: "Hello there"}); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestNewClientsRequireKeys(t *testing.T) {
	if NewBrevoClient("", "noreply@pluscode.io", "contact@pluscode.io", false) != nil {
		t.Fatalf("expected nil brevo client without key")
	}
	if NewResendClient(" ", "noreply@pluscode.io", "contact@pluscode.io") != nil {
		t.Fatalf("expected nil resend client without key")
	}
}

func TestResendSendContact(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	c, err := NewResendClient("re_test", "PlusCode Contact Form <noreply@pluscode.io>", "contact@pluscode.io").WithBaseURL(srv.URL)
	if err != nil {
		t.Fatalf("base url: %v", err)
	}

	id, err := c.SendContact(context.Background(), ContactMessage{Name: "Ann", Email: "ann@example.com", Message: "Hello there"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_1" {
		t.Fatalf("unexpected id %q", id)
	}
	if got["subject"] != "New Contact Form Submission from Ann" || got["reply_to"] != "ann@example.com" {
		t.Fatalf("unexpected payload %v", got)
	}
}
