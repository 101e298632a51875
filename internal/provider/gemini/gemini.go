// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini adapts the Gemini generateContent REST API as a rich
// provider.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/tablescout/internal/httputil"
	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// ID identifies the adapter in provenance and the availability policy.
const ID = "gemini"

// DefaultModel is used when the configuration leaves the model empty.
const DefaultModel = "gemini-2.0-flash-exp"

// apiBase is the Generative Language API root. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://generativelanguage.googleapis.com/v1beta"

const instructions = `You are a restaurant search assistant. Find restaurants matching the
user's query in the requested location using your knowledge. Prefer the exact
restaurant when a name is given, and only list places that really exist.

` + provider.RestaurantSchemaPrompt

// Adapter calls Gemini over plain HTTP.
type Adapter struct {
	client    *http.Client
	limiter   *rate.Limiter
	apiKey    string
	endpoint  string
	userAgent string
}

// New builds the adapter.
func New(cfg types.ProviderConfig, client *http.Client, userAgent string) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	base := apiBase
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Adapter{
		client:    client,
		limiter:   httputil.NewLimiter(cfg.RequestsPerSecond),
		apiKey:    cfg.APIKey,
		endpoint:  base + "/models/" + model + ":generateContent",
		userAgent: userAgent,
	}
}

func (a *Adapter) ID() string       { return ID }
func (a *Adapter) Role() types.Role { return types.RoleRich }

// Fetch asks the model about query in location.
func (a *Adapter) Fetch(ctx context.Context, query, location string, timeout time.Duration) ([]types.RawCandidate, error) {
	if a.apiKey == "" {
		return nil, provider.Misconfigured(ID, "missing API key")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	payload, err := json.Marshal(generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: instructions}}},
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: provider.SearchPrompt(query, location)}},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0.7,
			TopP:             0.95,
			TopK:             40,
			MaxOutputTokens:  8192,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := httputil.Do(ctx, a.client, a.limiter, req)
	if err != nil {
		return nil, fmt.Errorf("gemini generateContent: %w", err)
	}
	defer resp.Body.Close()

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing gemini response: %w", err)
	}
	return provider.DecodeRestaurants(body.text(), location)
}

// Gemini API JSON structures.
type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// text concatenates the parts of the first candidate.
func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
