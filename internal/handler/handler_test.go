// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/olegiv/carta/internal/admin"
	"github.com/olegiv/carta/internal/analytics"
	"github.com/olegiv/carta/internal/menu"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/scheduler"
	"github.com/olegiv/carta/internal/session"
	"github.com/olegiv/carta/internal/store"
	"github.com/olegiv/carta/internal/testutil"
)

const (
	testToken     = "test-admin-token"
	testAssetBase = "https://cdn.example.com/"
)

type testApp struct {
	router http.Handler
	q      *store.Queries
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	q := testutil.TestSeededQueries(t)
	logger := testutil.TestLoggerSilent()

	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	require.NoError(t, err)

	menus := menu.NewService(q, nil, 0, logger)
	sm := session.New(q.DB(), true, 0)

	jobs := scheduler.New(logger)
	for _, j := range scheduler.AnalyticsJobs(q, 30*24*time.Hour, nil, logger) {
		require.NoError(t, jobs.Register(j))
	}

	h := Handlers{
		Health:   NewHealthHandler(q, "memory"),
		Public:   NewPublicHandler(menus, testAssetBase, logger),
		Tracking: NewTrackingHandler(analytics.NewTracker(q, logger), session.NewMarkers(sm)),
		Admin:    NewAdminHandler(admin.NewService(q, menus, nil, logger), analytics.NewStats(q), q, jobs, logger),
	}
	cfg := RouterConfig{
		IsDevelopment:  true,
		DefaultLang:    model.LangES,
		RequestTimeout: 10 * time.Second,
		TrackRateLimit: 100,
		TrackBurst:     100,
		AdminTokenHash: string(hash),
	}
	return &testApp{router: NewRouter(cfg, h, sm, logger), q: q}
}

type request struct {
	method  string
	path    string
	body    any
	admin   bool
	cookies []*http.Cookie
	header  map[string]string
}

func (a *testApp) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.admin {
		r.Header.Set("Authorization", "Bearer "+testToken)
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (a *testApp) demoMenu(t *testing.T) model.Menu {
	t.Helper()
	m, err := a.q.GetPublishedMenuBySlug(context.Background(), store.DemoMenuSlug)
	require.NoError(t, err)
	require.NotNil(t, m)
	return *m
}
