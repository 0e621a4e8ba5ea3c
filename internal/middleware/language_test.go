// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/carta/internal/model"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cookie     string
		accept     string
		defaultTo  model.Lang
		want       model.Lang
		wantCookie bool
	}{
		{name: "default", defaultTo: model.LangES, want: model.LangES},
		{name: "configured default", defaultTo: model.LangEN, want: model.LangEN},
		{name: "invalid default", defaultTo: "fr", want: model.DefaultLang},
		{name: "query", query: "pt", defaultTo: model.LangES, want: model.LangPT, wantCookie: true},
		{name: "query is case insensitive", query: "EN", defaultTo: model.LangES, want: model.LangEN, wantCookie: true},
		{name: "unsupported query falls through", query: "fr", defaultTo: model.LangEN, want: model.LangEN},
		{name: "cookie", cookie: "en", defaultTo: model.LangES, want: model.LangEN},
		{name: "query beats cookie", query: "es", cookie: "en", defaultTo: model.LangPT, want: model.LangES, wantCookie: true},
		{name: "accept language", accept: "pt-BR,pt;q=0.9,en;q=0.5", defaultTo: model.LangES, want: model.LangPT},
		{name: "accept language asking for default", accept: "es-ES", defaultTo: model.LangEN, want: model.LangES},
		{name: "cookie beats accept language", cookie: "pt", accept: "en", defaultTo: model.LangES, want: model.LangPT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.Lang
			handler := Language(tt.defaultTo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetLanguage(r)
			}))

			target := "/m/la-tasca"
			if tt.query != "" {
				target += "?lang=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LanguageCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}
			setCookie := rec.Header().Get("Set-Cookie") != ""
			if setCookie != tt.wantCookie {
				t.Errorf("Set-Cookie present = %v, want %v", setCookie, tt.wantCookie)
			}
		})
	}
}

func TestGetLanguageOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetLanguage(req); got != model.DefaultLang {
		t.Errorf("GetLanguage() = %q, want %q", got, model.DefaultLang)
	}
}
