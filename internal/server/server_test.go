// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/internal/watchlist"
	"github.com/pdiddy/tablescout/pkg/types"
)

// --- test helpers ---

type stubAdapter struct {
	id      string
	role    types.Role
	results []types.RawCandidate
	err     error
}

func (a *stubAdapter) ID() string       { return a.id }
func (a *stubAdapter) Role() types.Role { return a.role }

func (a *stubAdapter) Fetch(_ context.Context, _, _ string, _ time.Duration) ([]types.RawCandidate, error) {
	return a.results, a.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func candidate(name, city string, fields map[string]any) types.RawCandidate {
	if fields == nil {
		fields = map[string]any{}
	}
	fields[types.FieldCity] = city
	return types.RawCandidate{Name: name, LocationHint: city, DetailFields: fields}
}

func newTestServer(t *testing.T, adapters ...provider.Adapter) *Server {
	t.Helper()
	agg, err := search.New(adapters, types.SearchConfig{
		LookupDeadline: time.Second,
		EnrichDeadline: time.Second,
	}, search.WithLogger(quietLogger()))
	require.NoError(t, err)

	store, err := watchlist.NewStore(types.WatchlistConfig{DataDir: filepath.Join(t.TempDir(), "data")},
		watchlist.WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(agg, WithSavedStore(store), WithLogger(quietLogger()))
}

func defaultAdapters() []provider.Adapter {
	return []provider.Adapter{
		&stubAdapter{id: "cse", role: types.RoleLightweight, results: []types.RawCandidate{
			candidate("Zuma", "Dubai", map[string]any{types.FieldWebsite: "https://zuma.example"}),
		}},
		&stubAdapter{id: "llm", role: types.RoleRich, results: []types.RawCandidate{
			candidate("Zuma Dubai", "Dubai", map[string]any{types.FieldDescription: "Izakaya-style dining"}),
		}},
		&stubAdapter{id: "places", role: types.RoleStructured, results: []types.RawCandidate{
			candidate("Zuma Dubai", "Dubai", map[string]any{types.FieldPhone: "+971 4 425 5660"}),
		}},
	}
}

func do(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- search routes ---

func TestHealth(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	rec := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "enabled", body["policy"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := newRequestID()
		assert.Len(t, id, 26)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestQuickSearch(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	rec := do(t, s, http.MethodPost, apiPrefix+"/quick-search", "",
		map[string]any{"query": "zuma", "location": "Dubai"})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[types.LookupResult](t, rec)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "Zuma", res.Candidates[0].Name)
	assert.Equal(t, []string{"cse"}, res.Candidates[0].SourceProviderIDs)
}

func TestSearchRequestValidation(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"invalid JSON", "/search", "{not json"},
		{"missing query", "/search", map[string]any{"location": "Dubai"}},
		{"blank query", "/search", map[string]any{"query": "   ", "location": "Dubai"}},
		{"location too short", "/search", map[string]any{"query": "zuma", "location": "D"}},
		{"query too long", "/quick-search", map[string]any{"query": strings.Repeat("q", 201), "location": "Dubai"}},
		{"mode out of range", "/search", map[string]any{"query": "zuma", "location": "Dubai", "mode": 4}},
		{"limit out of range", "/quick-search", map[string]any{"query": "zuma", "location": "Dubai", "limit": 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, apiPrefix+tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decode[map[string]string](t, rec), "detail")
		})
	}
}

func TestSearchModes(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)

	tests := []struct {
		mode      int
		providers []string
	}{
		{0, []string{"places", "llm"}},
		{int(search.ModeRichOnly), []string{"llm"}},
		{int(search.ModeStructuredOnly), []string{"places"}},
		{int(search.ModeHybrid), []string{"places", "llm"}},
	}
	for _, tt := range tests {
		t.Run(search.Mode(tt.mode).String(), func(t *testing.T) {
			rec := do(t, s, http.MethodPost, apiPrefix+"/search", "",
				map[string]any{"query": "Zuma Dubai", "location": "Dubai", "mode": tt.mode})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			res := decode[searchResponse](t, rec)
			require.Len(t, res.Restaurants, 1)
			assert.ElementsMatch(t, tt.providers, res.Restaurants[0].SourceProviderIDs)
		})
	}
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	s := newTestServer(t, &stubAdapter{id: "llm", role: types.RoleRich, results: []types.RawCandidate{}})
	rec := do(t, s, http.MethodPost, apiPrefix+"/search", "",
		map[string]any{"query": "nowhere", "location": "Dubai"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"restaurants":[]}`, rec.Body.String())
}

func TestSearchAllAdaptersFailed(t *testing.T) {
	s := newTestServer(t,
		&stubAdapter{id: "llm", role: types.RoleRich, err: errors.New("connection refused")},
		&stubAdapter{id: "places", role: types.RoleStructured, err: errors.New("connection reset")},
	)
	rec := do(t, s, http.MethodPost, apiPrefix+"/search", "",
		map[string]any{"query": "zuma", "location": "Dubai"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "search unavailable", decode[map[string]string](t, rec)["detail"])
}

func TestPolicyReflectsDisabledAdapter(t *testing.T) {
	s := newTestServer(t,
		&stubAdapter{id: "llm", role: types.RoleRich, results: []types.RawCandidate{candidate("Zuma", "Dubai", nil)}},
		&stubAdapter{id: "places", role: types.RoleStructured, err: provider.Misconfigured("", "missing API key")},
	)

	rec := do(t, s, http.MethodGet, apiPrefix+"/policy", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enabled", decode[policyResponse](t, rec).State)

	rec = do(t, s, http.MethodPost, apiPrefix+"/search", "",
		map[string]any{"query": "zuma", "location": "Dubai"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, apiPrefix+"/policy", "", nil)
	res := decode[policyResponse](t, rec)
	assert.Equal(t, "rich_only_fallback", res.State)
	assert.Equal(t, []search.AdapterStatus{
		{ID: "llm", Role: "rich", Available: true},
		{ID: "places", Role: "structured", Available: false},
	}, res.Adapters)
}

func TestUnknownRoute(t *testing.T) {
	tests := []struct {
		name, method, path string
		want               int
		detail             string
	}{
		{"unknown path", http.MethodGet, "/api/v1/nope", http.StatusNotFound, "not found"},
		{"unknown path under prefix", http.MethodGet, apiPrefix + "/nope", http.StatusNotFound, "not found"},
		{"wrong method", http.MethodGet, apiPrefix + "/search", http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s := New(newTestServer(t, defaultAdapters()...).search,
				WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

			rec := do(t, s, tt.method, tt.path, "", nil)
			require.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.detail, decode[map[string]string](t, rec)["detail"])

			id := rec.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, id)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry), logs.String())
			assert.Equal(t, "request", entry["msg"])
			assert.Equal(t, tt.path, entry["path"])
			assert.EqualValues(t, tt.want, entry["status"])
			assert.Equal(t, id, entry["request_id"])
		})
	}
}

// --- saved routes ---

func savedBody(id, name, city string, extra map[string]any) map[string]any {
	body := map[string]any{
		"restaurant_data": types.CanonicalRecord{
			ID: id, Name: name, City: city,
			ImageURLs:         []string{},
			SourceProviderIDs: []string{"places"},
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func TestSavedRequiresUser(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	for _, path := range []string{"/saved", "/saved/ids", "/saved/abc", "/saved/export"} {
		rec := do(t, s, http.MethodGet, apiPrefix+path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestSavedLifecycle(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	base := apiPrefix + "/saved"

	rec := do(t, s, http.MethodPost, base, "u1", savedBody("zuma", "Zuma", "Dubai",
		map[string]any{"personal_rating": 5, "tags": []string{"date-night"}}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.SavedRestaurant](t, rec)
	assert.Equal(t, "zuma", created.RestaurantID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, 5, *created.PersonalRating)

	rec = do(t, s, http.MethodPost, base, "u1", savedBody("zuma", "Zuma", "Dubai", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/zuma", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Zuma", decode[types.SavedRestaurant](t, rec).Restaurant.Name)

	rec = do(t, s, http.MethodGet, base+"/zuma", "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "entries are per user")

	rec = do(t, s, http.MethodPut, base+"/zuma", "u1", map[string]any{"visited": true, "notes": "Go early"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[types.SavedRestaurant](t, rec)
	assert.True(t, updated.Visited)
	assert.Equal(t, "Go early", updated.Notes)
	assert.Equal(t, []string{"date-night"}, updated.Tags)

	rec = do(t, s, http.MethodPut, base+"/zuma", "u1", map[string]any{"personal_rating": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/ids", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"restaurant_ids":["zuma"]}`, rec.Body.String())

	rec = do(t, s, http.MethodDelete, base+"/zuma", "u1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, base+"/zuma", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveValidation(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	base := apiPrefix + "/saved"

	tests := []struct {
		name string
		body any
	}{
		{"rating out of range", savedBody("zuma", "Zuma", "Dubai", map[string]any{"personal_rating": 0})},
		{"notes too long", savedBody("zuma", "Zuma", "Dubai", map[string]any{"notes": strings.Repeat("n", 1001)})},
		{"missing restaurant", map[string]any{"visited": true}},
		{"malformed", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, base, "u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestListSaved(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	base := apiPrefix + "/saved"
	for _, b := range []map[string]any{
		savedBody("zuma", "Zuma", "Dubai", map[string]any{"visited": true}),
		savedBody("nobu", "Nobu", "London", nil),
		savedBody("tresind", "Tresind Studio", "Dubai", nil),
	} {
		require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, base, "u1", b).Code)
	}

	names := func(rec *httptest.ResponseRecorder) []string {
		res := decode[savedListResponse](t, rec)
		out := make([]string, 0, res.Total)
		for _, e := range res.Restaurants {
			out = append(out, e.Restaurant.Name)
		}
		return out
	}

	tests := []struct {
		query string
		code  int
		want  []string
	}{
		{"", http.StatusOK, []string{"Tresind Studio", "Nobu", "Zuma"}},
		{"?sort_by=name&order=asc", http.StatusOK, []string{"Nobu", "Tresind Studio", "Zuma"}},
		{"?city=dubai&order=asc", http.StatusOK, []string{"Zuma", "Tresind Studio"}},
		{"?visited=true", http.StatusOK, []string{"Zuma"}},
		{"?visited=maybe", http.StatusBadRequest, nil},
		{"?order=sideways", http.StatusBadRequest, nil},
		{"?sort_by=rating", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, base+tt.query, "u1", nil)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.want != nil {
				assert.Equal(t, tt.want, names(rec))
			}
		})
	}
}

func TestExportSaved(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	base := apiPrefix + "/saved"
	require.Equal(t, http.StatusCreated,
		do(t, s, http.MethodPost, base, "u1", savedBody("zuma", "Zuma", "Dubai", nil)).Code)

	rec := do(t, s, http.MethodGet, base+"/export?format=yaml", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "restaurant_id: zuma")

	rec = do(t, s, http.MethodGet, base+"/export", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]types.SavedRestaurant](t, rec)
	require.Len(t, entries, 1)

	rec = do(t, s, http.MethodGet, base+"/export?format=xml", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedRoutesAbsentWithoutStore(t *testing.T) {
	agg, err := search.New(defaultAdapters(), types.SearchConfig{}, search.WithLogger(quietLogger()))
	require.NoError(t, err)
	s := New(agg, WithLogger(quietLogger()))
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, apiPrefix+"/saved", "u1", nil).Code)
}

func TestListenAndServeShutsDown(t *testing.T) {
	s := newTestServer(t, defaultAdapters()...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, types.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
