package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/internal/provider"
	"github.com/pdiddy/tablescout/pkg/types"
)

func TestPolicyStateTransitions(t *testing.T) {
	adapters := []provider.Adapter{
		&mockAdapter{id: "fsq", role: types.RoleStructured},
		&mockAdapter{id: "yelp", role: types.RoleStructured},
		&mockAdapter{id: "openai", role: types.RoleRich},
	}
	p := NewPolicy(adapters)
	assert.Equal(t, StateEnabled, p.State())

	assert.True(t, p.Disable("fsq"))
	assert.False(t, p.Disable("fsq"), "disable is idempotent")
	assert.Equal(t, StateDegraded, p.State())

	assert.True(t, p.Disable("yelp"))
	assert.Equal(t, StateRichOnlyFallback, p.State())

	assert.True(t, p.Available("openai"))
	assert.False(t, p.Available("unknown"))
	assert.False(t, p.Disable("unknown"))

	snap := p.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, AdapterStatus{ID: "fsq", Role: "structured", Available: false}, snap[0])
	assert.Equal(t, AdapterStatus{ID: "openai", Role: "rich", Available: true}, snap[2])
}

func TestPolicyNoStructuredAdaptersIsEnabled(t *testing.T) {
	p := NewPolicy([]provider.Adapter{&mockAdapter{id: "openai", role: types.RoleRich}})
	p.Disable("openai")
	assert.Equal(t, StateEnabled, p.State())
}

func TestPolicyConcurrentDisable(t *testing.T) {
	p := NewPolicy([]provider.Adapter{&mockAdapter{id: "fsq", role: types.RoleStructured}})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Disable("fsq") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
			_ = p.State()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins, "exactly one caller makes the transition")
	assert.Equal(t, StateRichOnlyFallback, p.State())
}
