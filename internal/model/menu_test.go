// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    Price
		wantErr bool
	}{
		{"12.50", 1250, false},
		{"12.5", 1250, false},
		{"12", 1200, false},
		{"0", 0, false},
		{".99", 99, false},
		{" 3.07 ", 307, false},
		{"", 0, true},
		{"-1", 0, true},
		{"+1", 0, true},
		{"1.234", 0, true},
		{"1.", 0, true},
		{"abc", 0, true},
		{"1.a", 0, true},
		{"3.-9", 0, true},
		{"1.+5", 0, true},
		{"0.-5", 0, true},
		{".-5", 0, true},
		{"1 .5", 0, true},
		{"92233720368547758", 0, true},
		{"92233720368547757.99", 9223372036854775799, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPrice))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceString(t *testing.T) {
	assert.Equal(t, "0.00", Price(0).String())
	assert.Equal(t, "0.05", Price(5).String())
	assert.Equal(t, "12.50", Price(1250).String())
}

func TestPriceJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		P Price `json:"p"`
	}{P: 1999})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"19.99"}`, string(data))

	var out struct {
		P Price `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":4.5}`), &out))
	assert.Equal(t, Price(450), out.P)

	require.Error(t, json.Unmarshal([]byte(`{"p":"-2"}`), &out))
}

func TestAllergens(t *testing.T) {
	a := NewAllergens("Nuts", " gluten ", "", "nuts")

	assert.Len(t, a, 2)
	assert.True(t, a.Has("NUTS"))
	assert.False(t, a.Has("milk"))
	assert.Equal(t, []string{"gluten", "nuts"}, a.List())
	assert.Equal(t, `["gluten","nuts"]`, a.JSON())
}

func TestParseAllergens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty string", input: "", want: []string{}},
		{name: "empty array", input: "[]", want: []string{}},
		{name: "single item", input: `["soy"]`, want: []string{"soy"}},
		{name: "multiple items", input: `["sesame","egg","milk"]`, want: []string{"egg", "milk", "sesame"}},
		{name: "malformed", input: `{not json`, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAllergens(tt.input).List())
		})
	}
}

func TestMenuIsPublished(t *testing.T) {
	var nilMenu *Menu
	assert.False(t, nilMenu.IsPublished())
	assert.False(t, (&Menu{Status: MenuDraft}).IsPublished())
	assert.True(t, (&Menu{Status: MenuPublished}).IsPublished())
}

func TestParseLang(t *testing.T) {
	tests := []struct {
		input string
		want  Lang
		ok    bool
	}{
		{"es", LangES, true},
		{"EN", LangEN, true},
		{" pt ", LangPT, true},
		{"fr", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLang(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestNewText(t *testing.T) {
	assert.Nil(t, NewText("Hola", "", "").Variants)

	txt := NewText("Hola", "Hello", "")
	assert.Equal(t, "Hello", txt.Variant(LangEN))
	assert.Equal(t, "", txt.Variant(LangPT))
	assert.Equal(t, "", Text{Base: "x"}.Variant(LangEN))
}

func TestIsValidTheme(t *testing.T) {
	assert.True(t, IsValidTheme(DefaultTheme))
	assert.True(t, IsValidTheme("dark"))
	assert.False(t, IsValidTheme(""))
	assert.False(t, IsValidTheme("Classic"))
}
