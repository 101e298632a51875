package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/tablescout/internal/provider"
)

func TestFailureReport(t *testing.T) {
	empty := &FailureReport{}
	assert.Contains(t, empty.Error(), "no adapter available")

	r := &FailureReport{Failures: []*provider.AdapterError{
		{Kind: provider.KindTimeout, ProviderID: "gemini", Message: "deadline exceeded"},
	}}
	assert.ErrorIs(t, r, ErrAllAdaptersFailed)
	assert.Contains(t, r.Error(), "gemini")
}
