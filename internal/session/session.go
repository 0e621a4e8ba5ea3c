// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session provides the visitor session manager and the
// session-scoped analytics markers stored in it.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// DefaultLifetime is used when New gets a non-positive lifetime.
const DefaultLifetime = 24 * time.Hour

// Cookie names. Production uses the __Host- prefix, which requires
// Secure, Path=/ and no Domain.
const (
	devCookieName  = "carta_session"
	prodCookieName = "__Host-carta_session"
)

// New creates a session manager backed by the sessions table.
func New(db *sql.DB, isDev bool, lifetime time.Duration) *scs.SessionManager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	sm.Lifetime = lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if isDev {
		sm.Cookie.Name = devCookieName
	} else {
		sm.Cookie.Name = prodCookieName
	}
	return sm
}

// ErrNoSession is returned by Markers when the request carries no loaded
// session, e.g. outside the LoadAndSave middleware.
var ErrNoSession = errors.New("no session in context")

// Markers stores analytics dedup markers in the visitor session.
type Markers struct {
	sm *scs.SessionManager
}

// NewMarkers wraps a session manager.
func NewMarkers(sm *scs.SessionManager) *Markers {
	return &Markers{sm: sm}
}

// Get returns the marker value, "" when unset.
func (m *Markers) Get(ctx context.Context, key string) (value string, err error) {
	defer recoverNoSession(&err)
	return m.sm.GetString(ctx, key), nil
}

// Put sets a marker for the rest of the session.
func (m *Markers) Put(ctx context.Context, key, value string) (err error) {
	defer recoverNoSession(&err)
	m.sm.Put(ctx, key, value)
	return nil
}

// scs panics when the context holds no session data.
func recoverNoSession(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrNoSession, r)
	}
}
