// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package googlecse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/internal/httputil"
	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const webResponse = `{"items": [
  {"title": "Zuma Dubai - Japanese Restaurant | Tripadvisor", "link": "https://www.tripadvisor.com/zuma", "snippet": "Contemporary Japanese izakaya."},
  {"title": " - ", "link": "https://example.com/blank"},
  {"title": "Nobu Dubai | Atlantis", "link": "https://www.atlantis.com/nobu", "snippet": ""}
]}`

const imageResponse = `{"items": [
  {"link": "https://www.instagram.com/p/abc.jpg"},
  {"link": "https://cdn.example.com/page.html"},
  {"link": "https://cdn.example.com/one.jpg"},
  {"link": "https://cdn.example.com/two.png?w=600"},
  {"link": "https://cdn.example.com/three.webp"}
]}`

type fakeCSE struct {
	srv         *httptest.Server
	webCalls    atomic.Int32
	imageCalls  atomic.Int32
	lastWebQ    atomic.Value
	imageStatus int
}

func newFakeCSE(t *testing.T) *fakeCSE {
	t.Helper()
	f := &fakeCSE{imageStatus: http.StatusOK}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "cse-key" || q.Get("cx") != "cx-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if q.Get("searchType") == "image" {
			f.imageCalls.Add(1)
			w.WriteHeader(f.imageStatus)
			if f.imageStatus == http.StatusOK {
				fmt.Fprint(w, imageResponse)
			}
			return
		}
		f.webCalls.Add(1)
		f.lastWebQ.Store(q.Get("q"))
		fmt.Fprint(w, webResponse)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newAdapter(t *testing.T, f *fakeCSE, key, cx string) *Adapter {
	t.Helper()
	cfg := types.GoogleCSEConfig{EngineID: cx, ImageWorkers: 2}
	cfg.APIKey = key
	cfg.BaseURL = f.srv.URL
	a, err := New(cfg, f.srv.Client(), "tablescout/test")
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestFetch(t *testing.T) {
	f := newFakeCSE(t)
	a := newAdapter(t, f, "cse-key", "cx-1")

	got, err := a.Fetch(context.Background(), "sushi", "Dubai", time.Second)
	require.NoError(t, err)

	assert.Equal(t, "sushi restaurant Dubai", f.lastWebQ.Load())
	require.Len(t, got, 2, "blank titles are skipped")

	assert.Equal(t, "Zuma Dubai", got[0].Name)
	assert.Equal(t, types.RoleLightweight, got[0].Role)
	assert.Equal(t, "Contemporary Japanese izakaya.", got[0].DetailFields[types.FieldDescription])
	assert.Equal(t, "Dubai", got[0].DetailFields[types.FieldCity])
	assert.Equal(t, []string{"https://cdn.example.com/one.jpg", "https://cdn.example.com/two.png?w=600"}, got[0].ImageURLs)

	assert.Equal(t, "Nobu Dubai", got[1].Name)
	assert.NotContains(t, got[1].DetailFields, types.FieldDescription)
	assert.Equal(t, int32(2), f.imageCalls.Load())
}

func TestFetchImageFailureKeepsHits(t *testing.T) {
	f := newFakeCSE(t)
	f.imageStatus = http.StatusInternalServerError
	a := newAdapter(t, f, "cse-key", "cx-1")

	got, err := a.Fetch(context.Background(), "sushi", "Dubai", time.Second)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.NotNil(t, c.ImageURLs)
		assert.Empty(t, c.ImageURLs)
	}
}

func TestFetchMisconfigured(t *testing.T) {
	f := newFakeCSE(t)
	tests := []struct {
		name, key, cx, want string
	}{
		{"missing key", "", "cx-1", "missing API key"},
		{"missing engine id", "cse-key", "", "missing search engine id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, f, tt.key, tt.cx)
			_, err := a.Fetch(context.Background(), "sushi", "Dubai", time.Second)

			var ae *provider.AdapterError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, provider.KindMisconfigured, ae.Kind)
			assert.Contains(t, ae.Error(), tt.want)
		})
	}
	assert.Zero(t, f.webCalls.Load(), "no request is made without credentials")
}

func TestFetchRejectedKeyIsHardFailure(t *testing.T) {
	f := newFakeCSE(t)
	a := newAdapter(t, f, "wrong-key", "cx-1")

	_, err := a.Fetch(context.Background(), "sushi", "Dubai", time.Second)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, httputil.StatusCode(err))
	assert.Equal(t, provider.KindMisconfigured, provider.DefaultFailurePolicy().Classify(ID, err).Kind)
}

func TestFindImagesLimit(t *testing.T) {
	f := newFakeCSE(t)
	a := newAdapter(t, f, "cse-key", "cx-1")

	got, err := a.FindImages(context.Background(), "Zuma", "Dubai", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/one.jpg"}, got)

	got, err = a.FindImages(context.Background(), "Zuma", "Dubai", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, u := range got {
		assert.False(t, strings.Contains(u, "instagram"))
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Zuma Dubai - Japanese Restaurant", "Zuma Dubai"},
		{"Nobu | Atlantis The Palm", "Nobu"},
		{"Tresind Studio - Dubai | Michelin Guide", "Tresind Studio"},
		{"  La Petite Maison  ", "La Petite Maison"},
		{"Al-Fanar", "Al-Fanar"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTitle(tt.in), tt.in)
	}
}
