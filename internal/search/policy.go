package search

import (
	"sync/atomic"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

// State is the process-wide fallback state derived from the structured
// adapters' availability.
type State int

const (
	// StateEnabled means every structured adapter is available.
	StateEnabled State = iota
	// StateDegraded means at least one, but not every, structured adapter
	// has been disabled.
	StateDegraded
	// StateRichOnlyFallback means every structured adapter has been disabled.
	StateRichOnlyFallback
)

func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDegraded:
		return "degraded"
	case StateRichOnlyFallback:
		return "rich_only_fallback"
	default:
		return "unknown"
	}
}

type adapterFlag struct {
	role     types.Role
	disabled atomic.Bool
}

// Policy tracks per-adapter availability for the lifetime of the process.
// The flag map is built once and only read afterwards; each flag moves from
// available to disabled at most once.
type Policy struct {
	flags map[string]*adapterFlag
	order []string
}

// AdapterStatus is a point-in-time view of one adapter's availability.
type AdapterStatus struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Available bool   `json:"available"`
}

// NewPolicy registers every adapter as available.
func NewPolicy(adapters []provider.Adapter) *Policy {
	p := &Policy{flags: make(map[string]*adapterFlag, len(adapters))}
	for _, a := range adapters {
		if _, ok := p.flags[a.ID()]; ok {
			continue
		}
		p.flags[a.ID()] = &adapterFlag{role: a.Role()}
		p.order = append(p.order, a.ID())
	}
	return p
}

// Available reports whether the adapter may be dispatched. Unknown ids are
// unavailable.
func (p *Policy) Available(id string) bool {
	f, ok := p.flags[id]
	return ok && !f.disabled.Load()
}

// Disable marks the adapter unavailable and reports whether this call made
// the transition. Re-applying it is a no-op.
func (p *Policy) Disable(id string) bool {
	f, ok := p.flags[id]
	if !ok {
		return false
	}
	return f.disabled.CompareAndSwap(false, true)
}

// State derives the fallback state from the structured adapters. With no
// structured adapter registered the state is StateEnabled.
func (p *Policy) State() State {
	var total, disabled int
	for _, f := range p.flags {
		if f.role != types.RoleStructured {
			continue
		}
		total++
		if f.disabled.Load() {
			disabled++
		}
	}
	switch {
	case disabled == 0:
		return StateEnabled
	case disabled < total:
		return StateDegraded
	default:
		return StateRichOnlyFallback
	}
}

// Snapshot lists every adapter's availability in registration order.
func (p *Policy) Snapshot() []AdapterStatus {
	out := make([]AdapterStatus, 0, len(p.order))
	for _, id := range p.order {
		f := p.flags[id]
		out = append(out, AdapterStatus{
			ID:        id,
			Role:      f.role.String(),
			Available: !f.disabled.Load(),
		})
	}
	return out
}
