// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// Lang is a content language code understood by the public menu.
type Lang string

// Supported content languages.
const (
	LangES Lang = "es"
	LangEN Lang = "en"
	LangPT Lang = "pt"
)

// DefaultLang is used when a request does not ask for a language.
const DefaultLang = LangES

// SupportedLangs lists every language in switcher order.
var SupportedLangs = []Lang{LangES, LangEN, LangPT}

// ParseLang normalizes a language code and reports whether it is supported.
func ParseLang(code string) (Lang, bool) {
	l := Lang(strings.ToLower(strings.TrimSpace(code)))
	for _, s := range SupportedLangs {
		if s == l {
			return l, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (l Lang) String() string {
	return string(l)
}

// Variants holds per-language overrides of a text field.
// Missing or empty entries mean "use the base text".
type Variants map[Lang]string

// Text is a localizable text field: the base value (written in the
// menu's primary language) plus its translations.
type Text struct {
	Base     string   `json:"base"`
	Variants Variants `json:"variants,omitempty"`
}

// NewText builds a Text from a base value and optional EN/PT translations.
func NewText(base, en, pt string) Text {
	t := Text{Base: base}
	if en != "" || pt != "" {
		t.Variants = Variants{}
		if en != "" {
			t.Variants[LangEN] = en
		}
		if pt != "" {
			t.Variants[LangPT] = pt
		}
	}
	return t
}

// Variant returns the translation for lang, or "" when there is none.
func (t Text) Variant(lang Lang) string {
	if t.Variants == nil {
		return ""
	}
	return t.Variants[lang]
}
