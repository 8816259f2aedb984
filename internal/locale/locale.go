// Package locale resolves the visitor's language preference from the locale cookie
// and carries it through the request context.
package locale

import (
	"context"
	"net/http"
	"strings"
)

const (
	CookieName = "locale"
	Default    = "en"

	cookieMaxAge = 60 * 60 * 24 * 365
)

// Supported lists the locales with bundled translations. Other values are still
// passed through to content queries unchanged.
var Supported = []string{"en", "pl"}

func IsSupported(locale string) bool {
	for _, l := range Supported {
		if l == locale {
			return true
		}
	}
	return false
}

// Preference is the request-scoped {locale, setLocale} pair handed to whatever
// needs the active locale.
type Preference struct {
	Locale string
	w      http.ResponseWriter
	secure bool
}

// SetLocale switches the preference for the rest of the request and persists it.
func (p *Preference) SetLocale(locale string) {
	p.Locale = locale
	if p.w != nil {
		writeCookie(p.w, locale, p.secure)
	}
}

type ctxKey struct{}

// Middleware reads the locale cookie. Requests without one get the default locale,
// which is also written back so later requests carry it explicitly.
func Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pref := &Preference{Locale: Default, w: w, secure: secure}
			if c, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
				pref.Locale = strings.TrimSpace(c.Value)
			} else {
				writeCookie(w, Default, secure)
			}
			next.ServeHTTP(w, r.WithContext(WithPreference(r.Context(), pref)))
		})
	}
}

func WithPreference(ctx context.Context, pref *Preference) context.Context {
	return context.WithValue(ctx, ctxKey{}, pref)
}

// WithLocale is a shorthand for callers outside HTTP, such as the CLI and tests.
func WithLocale(ctx context.Context, locale string) context.Context {
	return WithPreference(ctx, &Preference{Locale: locale})
}

func PreferenceFromContext(ctx context.Context) *Preference {
	if pref, ok := ctx.Value(ctxKey{}).(*Preference); ok && pref != nil {
		return pref
	}
	return nil
}

func FromContext(ctx context.Context) string {
	if pref := PreferenceFromContext(ctx); pref != nil && pref.Locale != "" {
		return pref.Locale
	}
	return Default
}

// writeCookie replaces any locale cookie already queued on this response.
func writeCookie(w http.ResponseWriter, locale string, secure bool) {
	queued := w.Header().Values("Set-Cookie")
	kept := queued[:0:0]
	for _, v := range queued {
		if !strings.HasPrefix(v, CookieName+"=") {
			kept = append(kept, v)
		}
	}
	w.Header().Del("Set-Cookie")
	for _, v := range kept {
		w.Header().Add("Set-Cookie", v)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
