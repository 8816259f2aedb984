// Package contact accepts contact form submissions, verifies them against the
// captcha provider and hands them to the mail provider.
package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Catalog keys for inline field errors.
const (
	KeyNameRequired     = "contact.nameRequired"
	KeyNameMinLength    = "contact.nameMinLength"
	KeyEmailRequired    = "contact.emailRequired"
	KeyEmailInvalid     = "contact.emailInvalid"
	KeyMessageRequired  = "contact.messageRequired"
	KeyMessageMinLength = "contact.messageMinLength"
)

const (
	nameMinLength    = 2
	messageMinLength = 10
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CheckName returns the catalog key of the first failed rule, or "".
func CheckName(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return KeyNameRequired
	case utf8.RuneCountInString(value) < nameMinLength:
		return KeyNameMinLength
	}
	return ""
}

// CheckEmail matches the untrimmed value, so surrounding whitespace is invalid.
func CheckEmail(value string) string {
	switch {
	case strings.TrimSpace(value) == "":
		return KeyEmailRequired
	case !emailRegex.MatchString(value):
		return KeyEmailInvalid
	}
	return ""
}

func CheckMessage(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return KeyMessageRequired
	case utf8.RuneCountInString(value) < messageMinLength:
		return KeyMessageMinLength
	}
	return ""
}

// Fields are the user-editable inputs of the form. Company is optional and never
// validated.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// Validate returns field name to catalog key for every failing field.
func Validate(f Fields) map[string]string {
	errs := map[string]string{}
	if key := CheckName(f.Name); key != "" {
		errs["name"] = key
	}
	if key := CheckEmail(f.Email); key != "" {
		errs["email"] = key
	}
	if key := CheckMessage(f.Message); key != "" {
		errs["message"] = key
	}
	return errs
}
