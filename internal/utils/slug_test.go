package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Cloud-Native Best Practices": "cloud-native-best-practices",
		"  AI & Data  ":               "ai-and-data",
		"Startup's / Scale-up":        "startups-scale-up",
		"--Edge__Case--":              "edge-case",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSlug(t *testing.T) {
	if !IsSlug("zabka") || !IsSlug("ai-transforming-business") || !IsSlug("web3") {
		t.Fatalf("expected plain slugs to be valid")
	}
	for _, bad := range []string{"", "Zabka", "a--b", "-a", "a-", "a b", "a_b", "../etc", "a'b", strings.Repeat("a", 97)} {
		if IsSlug(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestIsSlugAcceptsSlugifyOutput(t *testing.T) {
	for _, title := range []string{"Żabka Mobile App", "AI & Data", "Startup's / Scale-up", "Q4 2025 Report"} {
		slug := Slugify(title)
		if slug == "" {
			continue
		}
		if !IsSlug(slug) {
			t.Fatalf("IsSlug(Slugify(%q)) = false for %q", title, slug)
		}
	}
}
