package validation

import "testing"

type localeRequest struct {
	Locale string `json:"locale" validate:"required,locale"`
}

type revalidateRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,tag"`
}

func TestLocaleTag(t *testing.T) {
	v := New()
	if err := v.Struct(localeRequest{Locale: "pl"}); err != nil {
		t.Fatalf("expected pl to be valid: %v", err)
	}
	err := v.Struct(localeRequest{Locale: "english"})
	if err == nil {
		t.Fatalf("expected error for malformed locale")
	}
	errs := v.ValidationErrors(err)
	if len(errs) != 1 || errs[0].Tag() != "locale" {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
}

func TestTagTag(t *testing.T) {
	v := New()
	if err := v.Struct(revalidateRequest{Tags: []string{"caseStudy", "caseStudy:acme"}}); err != nil {
		t.Fatalf("expected tags to be valid: %v", err)
	}
	if err := v.Struct(revalidateRequest{Tags: []string{"case study"}}); err == nil {
		t.Fatalf("expected error for tag with whitespace")
	}
	if err := v.Struct(revalidateRequest{}); err == nil {
		t.Fatalf("expected error for empty tag list")
	}
}
