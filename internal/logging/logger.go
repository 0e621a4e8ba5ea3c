// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns a text handler in development and a JSON handler
// otherwise.
func NewHandler(w io.Writer, level slog.Level, development bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if development {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// New builds the service logger. When events is non-nil, WARN and above
// also go to the event log.
func New(w io.Writer, level slog.Level, development bool, events EventWriter) *slog.Logger {
	h := NewHandler(w, level, development)
	if events != nil {
		h = NewEventLogHandler(h, events)
	}
	return slog.New(h)
}
