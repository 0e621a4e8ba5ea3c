// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import "github.com/olegiv/carta/internal/model"

// Resolve returns the variant for lang when it is present and non-empty,
// otherwise base.
func Resolve(base string, variants model.Variants, lang model.Lang) string {
	if v := variants[lang]; v != "" {
		return v
	}
	return base
}

// Text resolves a localizable field.
func Text(t model.Text, lang model.Lang) string {
	return Resolve(t.Base, t.Variants, lang)
}
