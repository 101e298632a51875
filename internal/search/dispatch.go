package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// outcome is what one fan-out produced. Candidates keep adapter
// registration order so Merge sees a deterministic arrival order.
type outcome struct {
	candidates []types.RawCandidate
	failures   []*provider.AdapterError
	roles      map[string]types.Role
	dispatched int
}

func (o outcome) allFailed() bool {
	return o.dispatched > 0 && len(o.failures) == o.dispatched
}

func (o outcome) combine(other outcome) outcome {
	roles := make(map[string]types.Role, len(o.roles)+len(other.roles))
	for id, r := range o.roles {
		roles[id] = r
	}
	for id, r := range other.roles {
		roles[id] = r
	}
	return outcome{
		candidates: append(append([]types.RawCandidate{}, o.candidates...), other.candidates...),
		failures:   append(append([]*provider.AdapterError{}, o.failures...), other.failures...),
		roles:      roles,
		dispatched: o.dispatched + other.dispatched,
	}
}

type slot struct {
	candidates []types.RawCandidate
	err        *provider.AdapterError
}

// dispatch runs one goroutine per adapter and waits for all of them or the
// deadline, whichever comes first. provider.Call returns as soon as the
// shared context is done, so every slot is written before Wait returns and
// nothing from a cancelled adapter reaches the merge.
func (a *Aggregator) dispatch(ctx context.Context, adapters []provider.Adapter, query, location string, deadline time.Duration) outcome {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	slots := make([]slot, len(adapters))
	var g errgroup.Group
	for i, ad := range adapters {
		g.Go(func() error {
			cands, err := provider.Call(ctx, ad, query, location, a.timeoutFor(ad), a.failures)
			slots[i] = slot{candidates: cands, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := outcome{
		roles:      make(map[string]types.Role, len(adapters)),
		dispatched: len(adapters),
	}
	for i, s := range slots {
		out.roles[adapters[i].ID()] = adapters[i].Role()
		if s.err != nil {
			out.failures = append(out.failures, s.err)
			continue
		}
		out.candidates = append(out.candidates, s.candidates...)
	}
	return out
}
