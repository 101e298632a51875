package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/pkg/types"
)

func TestRank(t *testing.T) {
	records := []types.CanonicalRecord{
		{Name: "no-images-one-source", SourceProviderIDs: []string{"a"}},
		{Name: "images-one-source", ImageURLs: []string{"x"}, SourceProviderIDs: []string{"a"}},
		{Name: "no-images-two-sources", SourceProviderIDs: []string{"a", "b"}},
		{Name: "images-two-sources", ImageURLs: []string{"x"}, SourceProviderIDs: []string{"a", "b"}},
		{Name: "images-one-source-later", ImageURLs: []string{"y"}, SourceProviderIDs: []string{"c"}},
	}

	got := Rank(records, 10)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"images-two-sources",
		"images-one-source",
		"images-one-source-later",
		"no-images-two-sources",
		"no-images-one-source",
	}, names)
	assert.Equal(t, "no-images-one-source", records[0].Name, "input must not be reordered")
}

func TestRankLimits(t *testing.T) {
	records := []types.CanonicalRecord{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Len(t, Rank(records, 2), 2)
	assert.Len(t, Rank(records, 5), 3)

	zero := Rank(records, 0)
	require.NotNil(t, zero)
	assert.Empty(t, zero)
	assert.Empty(t, Rank(records, -1))
}
