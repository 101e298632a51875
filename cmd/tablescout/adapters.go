package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/internal/provider/foursquare"
	"github.com/pdiddy/tablescout/internal/provider/gemini"
	"github.com/pdiddy/tablescout/internal/provider/googlecse"
	"github.com/pdiddy/tablescout/internal/provider/openai"
	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/pkg/types"
)

// buildAggregator registers every enabled adapter and returns the
// aggregator with a cleanup func that releases adapter resources.
func buildAggregator(cfg types.AppConfig) (*search.Aggregator, func(), error) {
	client := &http.Client{Timeout: cfg.Search.Timeout}
	ua := cfg.Search.UserAgent
	p := cfg.Providers

	var (
		adapters []provider.Adapter
		opts     = []search.Option{search.WithLogger(slog.Default())}
		cleanup  = func() {}
	)
	register := func(a provider.Adapter, pc types.ProviderConfig) {
		adapters = append(adapters, a)
		opts = append(opts, search.WithAdapterTimeout(a.ID(), pc.Timeout))
	}

	if p.GoogleCSE.Enabled {
		cse, err := googlecse.New(p.GoogleCSE, client, ua)
		if err != nil {
			return nil, nil, err
		}
		cleanup = cse.Close
		register(cse, p.GoogleCSE.ProviderConfig)
		opts = append(opts, search.WithImageFinder(cse))
	}
	if p.Foursquare.Enabled {
		register(foursquare.New(p.Foursquare, client, ua), p.Foursquare)
	}
	if p.OpenAI.Enabled {
		oa, err := openai.New(p.OpenAI, client)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		register(oa, p.OpenAI)
	}
	if p.Gemini.Enabled {
		register(gemini.New(p.Gemini, client, ua), p.Gemini)
	}

	agg, err := search.New(adapters, cfg.Search, opts...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("building search pipeline: %w", err)
	}
	slog.Debug("adapters registered", "count", len(adapters))
	return agg, cleanup, nil
}
