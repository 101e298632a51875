// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openai adapts an OpenAI-compatible chat completion API as a rich
// provider. The model is asked for restaurant descriptions in the shared
// JSON schema and the answer is decoded with provider.DecodeRestaurants.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/pdiddy/tablescout/internal/httputil"
	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// ID identifies the adapter in provenance and the availability policy.
const ID = "openai"

// DefaultModel is used when the configuration leaves the model empty.
const DefaultModel = "gpt-4o-mini"

const temperature = 0.7

const systemPrompt = `You are a restaurant research assistant. Given a restaurant name or a
description of what the user wants, find matching restaurants in the requested
location and describe each one accurately.

` + provider.RestaurantSchemaPrompt

// Adapter queries a chat model for restaurant details.
type Adapter struct {
	model   llms.Model
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New builds the adapter. Without an API key the adapter is still returned;
// every Fetch then fails as misconfigured.
func New(cfg types.ProviderConfig, client *http.Client) (*Adapter, error) {
	a := &Adapter{
		limiter: httputil.NewLimiter(cfg.RequestsPerSecond),
		logger:  slog.Default().With("component", ID),
	}
	if cfg.APIKey == "" {
		return a, nil
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if client != nil {
		opts = append(opts, openai.WithHTTPClient(client))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	a.model = llm
	return a, nil
}

func (a *Adapter) ID() string       { return ID }
func (a *Adapter) Role() types.Role { return types.RoleRich }

// Fetch asks the model about query in location.
func (a *Adapter) Fetch(ctx context.Context, query, location string, timeout time.Duration) ([]types.RawCandidate, error) {
	if a.model == nil {
		return nil, provider.Misconfigured(ID, "missing API key")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := httputil.Wait(ctx, a.limiter); err != nil {
		return nil, err
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(provider.SearchPrompt(query, location))},
		},
	}

	resp, err := a.model.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, provider.StatusFromMessage(err)
	}
	if len(resp.Choices) == 0 {
		a.logger.Debug("no choices returned from model")
		return []types.RawCandidate{}, nil
	}

	cands, err := provider.DecodeRestaurants(resp.Choices[0].Content, location)
	if err != nil {
		a.logger.Warn("unparseable model response", "err", err)
		return nil, err
	}
	return cands, nil
}
