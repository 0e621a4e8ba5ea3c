// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestNullInt64FromPtr(t *testing.T) {
	tests := []struct {
		name     string
		input    *int64
		expected sql.NullInt64
	}{
		{
			name:     "nil pointer",
			input:    nil,
			expected: sql.NullInt64{},
		},
		{
			name:     "positive value",
			input:    ptr(int64(42)),
			expected: sql.NullInt64{Int64: 42, Valid: true},
		},
		{
			name:     "zero value",
			input:    ptr(int64(0)),
			expected: sql.NullInt64{Int64: 0, Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullInt64FromPtr(tt.input)
			if got != tt.expected {
				t.Errorf("NullInt64FromPtr() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNullStringFromValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullString
	}{
		{name: "empty", input: "", expected: sql.NullString{}},
		{name: "translation", input: "Starters", expected: sql.NullString{String: "Starters", Valid: true}},
		{name: "whitespace kept", input: " ", expected: sql.NullString{String: " ", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NullStringFromValue(tt.input); got != tt.expected {
				t.Errorf("NullStringFromValue(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStringFromNull(t *testing.T) {
	if got := StringFromNull(sql.NullString{String: "stale", Valid: false}); got != "" {
		t.Errorf("StringFromNull(invalid) = %q, want empty", got)
	}
	if got := StringFromNull(sql.NullString{String: "Entradas", Valid: true}); got != "Entradas" {
		t.Errorf("StringFromNull(valid) = %q, want %q", got, "Entradas")
	}
}

func ptr(v int64) *int64 {
	return &v
}
