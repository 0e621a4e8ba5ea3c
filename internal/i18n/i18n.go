// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n resolves localized menu content and provides the label
// catalog used by the public menu views.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/olegiv/carta/internal/model"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds all label translations for all supported languages.
type Catalog struct {
	mu           sync.RWMutex
	translations map[model.Lang]map[string]string
	matcher      language.Matcher
	supported    []language.Tag
	defaultLang  model.Lang
	logger       *slog.Logger
}

var (
	catalog     *Catalog
	catalogOnce sync.Once
	catalogErr  error
)

// Init loads the embedded catalog. It is safe to call more than once;
// only the first call loads. T and MatchLanguage call it lazily.
func Init(logger *slog.Logger) error {
	catalogOnce.Do(func() {
		catalog, catalogErr = newCatalog(logger)
	})
	return catalogErr
}

func newCatalog(logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		translations: make(map[model.Lang]map[string]string),
		defaultLang:  model.DefaultLang,
		logger:       logger,
	}

	tags := make([]language.Tag, 0, len(model.SupportedLangs))
	for _, lang := range model.SupportedLangs {
		tags = append(tags, language.MustParse(lang.String()))
	}
	c.supported = tags
	c.matcher = language.NewMatcher(tags)

	for _, lang := range model.SupportedLangs {
		if err := c.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	if logger != nil {
		logger.Info("i18n initialized", "languages", model.SupportedLangs)
	}
	return c, nil
}

// loadLanguage loads translations for a specific language.
func (c *Catalog) loadLanguage(lang model.Lang) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.translations[lang] = make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		c.translations[lang][msg.ID] = msg.Translation
	}

	if c.logger != nil {
		c.logger.Debug("loaded translations", "language", lang, "count", len(msgFile.Messages))
	}
	return nil
}

// T translates a label key. Unknown languages use the default language,
// unknown keys return the key itself.
func T(lang model.Lang, key string, args ...any) string {
	if Init(nil) != nil {
		return key
	}

	catalog.mu.RLock()
	defer catalog.mu.RUnlock()

	translation, ok := catalog.translations[lang][key]
	if !ok {
		translation, ok = catalog.translations[catalog.defaultLang][key]
		if !ok {
			return key
		}
	}

	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// MatchLanguage picks the best supported language for an Accept-Language
// header or a bare language code. It falls back to model.DefaultLang.
func MatchLanguage(acceptLang string) model.Lang {
	if acceptLang == "" || Init(nil) != nil {
		return model.DefaultLang
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return catalog.defaultLang
		}
		tags = []language.Tag{tag}
	}

	_, idx, confidence := catalog.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(model.SupportedLangs) {
		return catalog.defaultLang
	}
	return model.SupportedLangs[idx]
}

// TranslationCount returns the number of translations loaded for a language.
func TranslationCount(lang model.Lang) int {
	if Init(nil) != nil {
		return 0
	}

	catalog.mu.RLock()
	defer catalog.mu.RUnlock()
	return len(catalog.translations[lang])
}
