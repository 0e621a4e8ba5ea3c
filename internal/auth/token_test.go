// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if a == b {
		t.Fatal("two generated tokens are equal")
	}
	if len(a) != 43 {
		t.Errorf("token length = %d, want 43", len(a))
	}
}

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	if err != nil {
		t.Fatalf("HashToken error: %v", err)
	}
	if !IsHash(hash) {
		t.Fatalf("IsHash(%q) = false", hash)
	}
	if !VerifyToken("s3cret", hash) {
		t.Error("correct token was rejected")
	}
	if VerifyToken("s3cret!", hash) {
		t.Error("wrong token was accepted")
	}
	if VerifyToken("", hash) {
		t.Error("empty token was accepted")
	}
	if VerifyToken("s3cret", "") {
		t.Error("empty hash accepted a token")
	}
}

func TestHashToken_Empty(t *testing.T) {
	if _, err := HashToken(""); err != ErrEmptyToken {
		t.Errorf("HashToken(\"\") error = %v, want ErrEmptyToken", err)
	}
}

func TestIsHash(t *testing.T) {
	for _, s := range []string{"", "plain", "$2a$bogus"} {
		if IsHash(s) {
			t.Errorf("IsHash(%q) = true", s)
		}
	}
}
