package search

import (
	"sort"

	"github.com/pdiddy/tablescout/pkg/types"
)

// Rank orders records (imaged first, then by corroborating providers, then
// discovery order) and truncates to limit. A non-positive limit yields an
// empty slice. The input slice is not modified.
func Rank(records []types.CanonicalRecord, limit int) []types.CanonicalRecord {
	if limit <= 0 {
		return []types.CanonicalRecord{}
	}

	out := make([]types.CanonicalRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		hi, hj := len(out[i].ImageURLs) > 0, len(out[j].ImageURLs) > 0
		if hi != hj {
			return hi
		}
		return len(out[i].SourceProviderIDs) > len(out[j].SourceProviderIDs)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
