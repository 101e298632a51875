// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs the two-tier restaurant search: a fast lookup over
// lightweight adapters and a parallel enrichment over rich and structured
// adapters. Both tiers merge overlapping candidates into canonical records,
// rank them, and bound the result set.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// Default per-adapter timeouts by role, and pipeline deadlines.
const (
	DefaultLightweightTimeout = 3 * time.Second
	DefaultRichTimeout        = 12 * time.Second
	DefaultStructuredTimeout  = 10 * time.Second
	DefaultLookupDeadline     = 4 * time.Second
	DefaultEnrichDeadline     = 15 * time.Second
)

// Mode selects which adapter roles take part in an enrichment.
type Mode int

const (
	// ModeRichOnly dispatches rich adapters only.
	ModeRichOnly Mode = iota + 1
	// ModeStructuredOnly dispatches structured adapters only, falling back
	// to rich adapters when every structured adapter is unavailable.
	ModeStructuredOnly
	// ModeHybrid dispatches rich and structured adapters together.
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeRichOnly:
		return "rich"
	case ModeStructuredOnly:
		return "structured"
	case ModeHybrid:
		return "hybrid"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts a mode name or its numeric form (1 rich, 2 structured,
// 3 hybrid). An empty string is ModeHybrid.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hybrid", "3":
		return ModeHybrid, nil
	case "rich", "rich_only", "1":
		return ModeRichOnly, nil
	case "structured", "structured_only", "2":
		return ModeStructuredOnly, nil
	default:
		return 0, fmt.Errorf("unknown search mode %q", s)
	}
}

// Aggregator coordinates adapters for lookup and enrichment. It is safe for
// concurrent use; the only state shared across requests is the availability
// policy.
type Aggregator struct {
	adapters []provider.Adapter
	policy   *Policy
	failures provider.FailurePolicy
	images   provider.ImageFinder
	timeouts map[string]time.Duration
	cfg      types.SearchConfig
	logger   *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithImageFinder enables the post-merge image backfill.
func WithImageFinder(f provider.ImageFinder) Option {
	return func(a *Aggregator) { a.images = f }
}

// WithAdapterTimeout overrides the role default timeout for one adapter.
func WithAdapterTimeout(id string, d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeouts[id] = d
		}
	}
}

// WithFailurePolicy replaces the hard/soft failure classification.
func WithFailurePolicy(p provider.FailurePolicy) Option {
	return func(a *Aggregator) { a.failures = p }
}

// New builds an Aggregator over adapters. Adapter ids must be unique.
func New(adapters []provider.Adapter, cfg types.SearchConfig, opts ...Option) (*Aggregator, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}
	seen := make(map[string]bool, len(adapters))
	for _, ad := range adapters {
		if seen[ad.ID()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAdapter, ad.ID())
		}
		seen[ad.ID()] = true
	}

	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = types.DefaultResultLimit
	}
	if cfg.LookupDeadline <= 0 {
		cfg.LookupDeadline = DefaultLookupDeadline
	}
	if cfg.EnrichDeadline <= 0 {
		cfg.EnrichDeadline = DefaultEnrichDeadline
	}

	failures := provider.DefaultFailurePolicy()
	if len(cfg.HardFailureStatuses) > 0 {
		failures.HardStatuses = cfg.HardFailureStatuses
	}
	if len(cfg.SoftFailureStatuses) > 0 {
		failures.SoftStatuses = cfg.SoftFailureStatuses
	}

	a := &Aggregator{
		adapters: adapters,
		policy:   NewPolicy(adapters),
		failures: failures,
		timeouts: make(map[string]time.Duration),
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "search")
	return a, nil
}

// Policy exposes the process-wide availability policy.
func (a *Aggregator) Policy() *Policy { return a.policy }

// Lookup runs the fast first pass over every lightweight adapter. Adapter
// failures are absorbed: if all of them fail the result is empty, not an
// error. Only request validation errors are returned.
func (a *Aggregator) Lookup(ctx context.Context, req types.SearchRequest) (types.LookupResult, error) {
	req = types.NewSearchRequest(req.Query, req.Location, req.ResultLimit)
	if err := validate(req.Query, req.Location); err != nil {
		return types.LookupResult{}, err
	}

	adapters := a.available(types.RoleLightweight)
	if len(adapters) == 0 {
		a.logger.Warn("lookup has no lightweight adapters")
		return types.LookupResult{Candidates: []types.CanonicalRecord{}}, nil
	}

	out := a.dispatch(ctx, adapters, req.Query, req.Location, a.cfg.LookupDeadline)
	a.absorb(out)

	records := a.finish(Merge(out.candidates))
	ranked := Rank(records, req.ResultLimit)

	a.logger.Debug("lookup complete",
		"query", req.Query, "location", req.Location,
		"dispatched", len(adapters), "failed", len(out.failures), "results", len(ranked))
	return types.LookupResult{Candidates: ranked, Total: len(ranked)}, nil
}

// Enrich runs the second pass for one named target (or a free-text query)
// and returns at most limit canonical records. A zero mode is ModeHybrid and
// a non-positive limit uses the configured default.
//
// It returns a *FailureReport wrapping ErrAllAdaptersFailed when every
// dispatched adapter failed. Zero candidates from surviving adapters is an
// empty success.
func (a *Aggregator) Enrich(ctx context.Context, name, location string, mode Mode, limit int) ([]types.CanonicalRecord, error) {
	name, location = strings.TrimSpace(name), strings.TrimSpace(location)
	if err := validate(name, location); err != nil {
		return nil, err
	}
	if mode == 0 {
		mode = ModeHybrid
	}
	if limit <= 0 {
		limit = a.cfg.ResultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.EnrichDeadline)
	defer cancel()

	adapters := a.enrichmentAdapters(mode)
	if len(adapters) == 0 {
		a.logger.Warn("enrich has no available adapters", "mode", mode)
		return nil, &FailureReport{}
	}

	out := a.dispatch(ctx, adapters, name, location, a.cfg.EnrichDeadline)
	disabled := a.absorb(out)

	// A structured-only request whose adapters just got disabled continues
	// with the rich adapters instead of failing.
	if mode == ModeStructuredOnly && out.allFailed() && disabled > 0 {
		if rich := a.available(types.RoleRich); len(rich) > 0 {
			a.logger.Info("structured adapters unavailable, falling back to rich", "name", name)
			retry := a.dispatch(ctx, rich, name, location, a.cfg.EnrichDeadline)
			a.absorb(retry)
			out = out.combine(retry)
		}
	}

	if out.allFailed() {
		return nil, &FailureReport{Failures: out.failures}
	}

	records := a.finish(Merge(out.candidates))
	if a.images != nil && a.cfg.BackfillImages {
		a.backfillImages(ctx, records)
	}
	ranked := Rank(records, limit)

	a.logger.Debug("enrich complete",
		"name", name, "location", location, "mode", mode,
		"dispatched", out.dispatched, "failed", len(out.failures), "results", len(ranked))
	return ranked, nil
}

func validate(query, location string) error {
	if query == "" {
		return ErrEmptyQuery
	}
	if location == "" {
		return ErrEmptyLocation
	}
	return nil
}

// enrichmentAdapters fixes the adapter set for one enrichment at dispatch
// time. Disabled adapters are skipped; a structured-only request with no
// structured adapter left degrades to the rich adapters.
func (a *Aggregator) enrichmentAdapters(mode Mode) []provider.Adapter {
	switch mode {
	case ModeRichOnly:
		return a.available(types.RoleRich)
	case ModeStructuredOnly:
		if s := a.available(types.RoleStructured); len(s) > 0 {
			return s
		}
		return a.available(types.RoleRich)
	default:
		return a.available(types.RoleStructured, types.RoleRich)
	}
}

// available returns the enabled adapters holding any of roles, in
// registration order.
func (a *Aggregator) available(roles ...types.Role) []provider.Adapter {
	var out []provider.Adapter
	for _, ad := range a.adapters {
		if !a.policy.Available(ad.ID()) {
			continue
		}
		for _, r := range roles {
			if ad.Role() == r {
				out = append(out, ad)
				break
			}
		}
	}
	return out
}

// absorb logs every adapter failure and disables structured adapters that
// failed hard. It returns the number of adapters disabled by this call.
func (a *Aggregator) absorb(out outcome) int {
	disabled := 0
	for _, f := range out.failures {
		a.logger.Warn("adapter failed", "provider", f.ProviderID, "kind", f.Kind.String(), "err", f)
		if f.Kind != provider.KindMisconfigured || out.roles[f.ProviderID] != types.RoleStructured {
			continue
		}
		if a.policy.Disable(f.ProviderID) {
			disabled++
			a.logger.Warn("structured adapter disabled for the rest of the process",
				"provider", f.ProviderID, "state", a.policy.State().String())
		}
	}
	return disabled
}

// finish applies post-merge cleanup shared by both pipelines.
func (a *Aggregator) finish(records []types.CanonicalRecord) []types.CanonicalRecord {
	if !a.cfg.ValidateImages {
		return records
	}
	for i := range records {
		records[i].ImageURLs = provider.FilterImages(records[i].ImageURLs)
	}
	return records
}

func (a *Aggregator) timeoutFor(ad provider.Adapter) time.Duration {
	if d, ok := a.timeouts[ad.ID()]; ok {
		return d
	}
	switch ad.Role() {
	case types.RoleLightweight:
		return DefaultLightweightTimeout
	case types.RoleStructured:
		return DefaultStructuredTimeout
	default:
		return DefaultRichTimeout
	}
}
