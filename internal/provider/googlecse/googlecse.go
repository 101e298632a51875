// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package googlecse adapts the Google Custom Search JSON API. Web search
// backs the lightweight lookup adapter; image search backs both the lookup
// thumbnails and the enrichment image backfill.
package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/pdiddy/tablescout/internal/httputil"
	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// ID identifies the adapter in provenance and the availability policy.
const ID = "google_cse"

// searchBase is the Custom Search endpoint. Declared as a var so tests can
// substitute an httptest server.
var searchBase = "https://www.googleapis.com/customsearch/v1"

const (
	webResults             = 5
	imageResults           = 10 // requested per image search; filtered afterwards
	defaultImagesPerResult = 2
	defaultImageWorkers    = 4
)

// Adapter is the lightweight lookup adapter and the image finder. Close
// releases its worker pool.
type Adapter struct {
	client          *http.Client
	limiter         *rate.Limiter
	pool            *ants.Pool
	apiKey          string
	engineID        string
	endpoint        string
	userAgent       string
	imagesPerResult int
	logger          *slog.Logger
}

// New builds the adapter and its image worker pool.
func New(cfg types.GoogleCSEConfig, client *http.Client, userAgent string) (*Adapter, error) {
	if client == nil {
		client = http.DefaultClient
	}
	workers := cfg.ImageWorkers
	if workers <= 0 {
		workers = defaultImageWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating image worker pool: %w", err)
	}

	a := &Adapter{
		client:          client,
		limiter:         httputil.NewLimiter(cfg.RequestsPerSecond),
		pool:            pool,
		apiKey:          cfg.APIKey,
		engineID:        cfg.EngineID,
		endpoint:        searchBase,
		userAgent:       userAgent,
		imagesPerResult: cfg.ImagesPerResult,
		logger:          slog.Default().With("component", ID),
	}
	if cfg.BaseURL != "" {
		a.endpoint = cfg.BaseURL
	}
	if a.imagesPerResult <= 0 {
		a.imagesPerResult = defaultImagesPerResult
	}
	return a, nil
}

// Close releases the image worker pool.
func (a *Adapter) Close() {
	a.pool.Release()
}

func (a *Adapter) ID() string       { return ID }
func (a *Adapter) Role() types.Role { return types.RoleLightweight }

// Fetch runs a web search for query near location and attaches a few
// images to each hit. Image lookups run on the worker pool; a failed image
// lookup leaves that hit without images.
func (a *Adapter) Fetch(ctx context.Context, query, location string, timeout time.Duration) ([]types.RawCandidate, error) {
	if err := a.checkConfig(); err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	params := url.Values{
		"q":   {query + " restaurant " + location},
		"num": {strconv.Itoa(webResults)},
	}
	var body searchResponse
	if err := a.search(ctx, params, &body); err != nil {
		return nil, fmt.Errorf("google cse web search: %w", err)
	}

	out := make([]types.RawCandidate, 0, len(body.Items))
	for i, item := range body.Items {
		name := cleanTitle(item.Title)
		if name == "" {
			continue
		}
		details := map[string]any{types.FieldCity: location}
		if s := strings.TrimSpace(item.Snippet); s != "" {
			details[types.FieldDescription] = s
		}
		if l := strings.TrimSpace(item.Link); l != "" {
			details[types.FieldWebsite] = l
		}
		rank := provider.PositionRank(i, len(body.Items))
		out = append(out, types.RawCandidate{
			SourceProviderID: ID,
			Role:             types.RoleLightweight,
			Name:             name,
			LocationHint:     location,
			DetailFields:     details,
			ImageURLs:        []string{},
			Rank:             &rank,
		})
	}

	a.attachImages(ctx, out, location)
	return out, nil
}

func (a *Adapter) attachImages(ctx context.Context, cands []types.RawCandidate, location string) {
	var wg sync.WaitGroup
	for i := range cands {
		c := &cands[i]
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			urls, err := a.FindImages(ctx, c.Name, location, a.imagesPerResult)
			if err != nil {
				a.logger.Debug("image search failed", "name", c.Name, "err", err)
				return
			}
			c.ImageURLs = urls
		})
		if err != nil {
			wg.Done()
			a.logger.Warn("image worker pool rejected task", "err", err)
		}
	}
	wg.Wait()
}

// FindImages runs an image search for a restaurant and returns up to n
// direct image links.
func (a *Adapter) FindImages(ctx context.Context, name, location string, n int) ([]string, error) {
	if err := a.checkConfig(); err != nil {
		return nil, err
	}
	params := url.Values{
		"q":          {name + " " + location + " restaurant food"},
		"searchType": {"image"},
		"num":        {strconv.Itoa(imageResults)},
	}
	var body searchResponse
	if err := a.search(ctx, params, &body); err != nil {
		return nil, fmt.Errorf("google cse image search: %w", err)
	}

	urls := []string{}
	for _, item := range body.Items {
		if len(urls) >= n {
			break
		}
		if provider.ValidImageURL(item.Link) {
			urls = append(urls, item.Link)
		}
	}
	return urls, nil
}

func (a *Adapter) checkConfig() error {
	if a.apiKey == "" {
		return provider.Misconfigured(ID, "missing API key")
	}
	if a.engineID == "" {
		return provider.Misconfigured(ID, "missing search engine id")
	}
	return nil
}

func (a *Adapter) search(ctx context.Context, params url.Values, dst any) error {
	params.Set("key", a.apiKey)
	params.Set("cx", a.engineID)
	params.Set("safe", "active")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := httputil.Do(ctx, a.client, a.limiter, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// cleanTitle strips the site name suffix search engines append to page
// titles ("Zuma Dubai - Japanese Restaurant | Tripadvisor" -> "Zuma Dubai").
func cleanTitle(title string) string {
	title, _, _ = strings.Cut(title, " - ")
	title, _, _ = strings.Cut(title, " | ")
	return strings.TrimSpace(title)
}

// Custom Search JSON structures.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
