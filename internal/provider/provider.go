// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider defines the uniform capability interface every restaurant
// data source is wrapped behind, the adapter error taxonomy, and helpers
// shared by the concrete adapters in the subpackages.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/tablescout/pkg/types"
)

// Adapter wraps one external data source in one capability role. A physical
// provider that serves two roles is exposed as two adapters.
//
// Fetch must return an empty slice and a nil error when the provider has no
// matches, and must not block past timeout. Implementations hold no
// per-request mutable state and are safe for concurrent use.
type Adapter interface {
	ID() string
	Role() types.Role
	Fetch(ctx context.Context, query, location string, timeout time.Duration) ([]types.RawCandidate, error)
}

// ImageFinder returns image URLs for a named restaurant. It backs the
// post-merge image backfill.
type ImageFinder interface {
	FindImages(ctx context.Context, name, location string, n int) ([]string, error)
}

type fetchResult struct {
	candidates []types.RawCandidate
	err        error
}

// Call invokes a.Fetch under timeout and converts every failure into an
// *AdapterError using policy. It returns as soon as ctx or the timeout is
// done, even if the adapter ignores cancellation; whatever the adapter
// produces afterwards is dropped. Panics are recovered as KindUnavailable.
// Returned candidates are stamped with the adapter's id and role.
func Call(ctx context.Context, a Adapter, query, location string, timeout time.Duration, policy FailurePolicy) ([]types.RawCandidate, *AdapterError) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Buffered so a late adapter never blocks after Call has returned.
	ch := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- fetchResult{err: &AdapterError{
					Kind:       KindUnavailable,
					ProviderID: a.ID(),
					Message:    fmt.Sprintf("adapter panic: %v", r),
				}}
			}
		}()
		c, err := a.Fetch(ctx, query, location, timeout)
		ch <- fetchResult{candidates: c, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, policy.Classify(a.ID(), r.err)
		}
		return stamp(r.candidates, a), nil
	case <-ctx.Done():
		return nil, policy.Classify(a.ID(), ctx.Err())
	}
}

func stamp(cands []types.RawCandidate, a Adapter) []types.RawCandidate {
	out := make([]types.RawCandidate, 0, len(cands))
	for _, c := range cands {
		if c.SourceProviderID == "" {
			c.SourceProviderID = a.ID()
		}
		c.Role = a.Role()
		out = append(out, c)
	}
	return out
}
