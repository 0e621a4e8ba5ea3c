// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/carta/internal/i18n"
	"github.com/olegiv/carta/internal/model"
)

// ContextKeyLanguage is the context key for the request language.
const ContextKeyLanguage ContextKey = "language"

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "carta_lang"

const languageCookieMaxAge = 365 * 24 * 60 * 60

// Language creates middleware that detects and sets the request language.
// Priority order:
//  1. Query parameter ?lang=XX (explicit switch, updates cookie)
//  2. Cookie preference
//  3. Accept-Language header
//  4. defaultLang
//
// Unsupported codes at any step are skipped.
func Language(defaultLang model.Lang) func(http.Handler) http.Handler {
	if _, ok := model.ParseLang(string(defaultLang)); !ok {
		defaultLang = model.DefaultLang
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(w, r, defaultLang)
			ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLanguage(w http.ResponseWriter, r *http.Request, defaultLang model.Lang) model.Lang {
	if lang, ok := model.ParseLang(r.URL.Query().Get("lang")); ok {
		SetLanguageCookie(w, lang)
		return lang
	}

	if cookie, err := r.Cookie(LanguageCookieName); err == nil {
		if lang, ok := model.ParseLang(cookie.Value); ok {
			return lang
		}
	}

	if header := r.Header.Get("Accept-Language"); header != "" {
		lang := i18n.MatchLanguage(header)
		// The matcher falls back to model.DefaultLang; honor it only when asked for.
		if lang != model.DefaultLang || strings.Contains(strings.ToLower(header), string(lang)) {
			return lang
		}
	}

	return defaultLang
}

// SetLanguageCookie stores the language preference for a year.
func SetLanguageCookie(w http.ResponseWriter, lang model.Lang) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   languageCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetLanguage returns the request language set by Language, or
// model.DefaultLang outside the middleware.
func GetLanguage(r *http.Request) model.Lang {
	return LanguageFromContext(r.Context())
}

// LanguageFromContext is GetLanguage for a bare context.
func LanguageFromContext(ctx context.Context) model.Lang {
	if lang, ok := ctx.Value(ContextKeyLanguage).(model.Lang); ok {
		return lang
	}
	return model.DefaultLang
}
