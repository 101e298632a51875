package search

import (
	"errors"
	"strings"

	"github.com/pdiddy/tablescout/internal/provider"
)

var (
	// ErrEmptyQuery is returned when the trimmed query is empty.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrEmptyLocation is returned when the trimmed location is empty.
	ErrEmptyLocation = errors.New("location is empty")

	// ErrNoAdapters is returned by New when no adapter is registered.
	ErrNoAdapters = errors.New("no provider adapters configured")

	// ErrDuplicateAdapter is returned by New when two adapters share an id.
	ErrDuplicateAdapter = errors.New("duplicate adapter id")

	// ErrAllAdaptersFailed is the only pipeline failure surfaced to callers.
	// It is recoverable: the caller may retry or show "search unavailable".
	ErrAllAdaptersFailed = errors.New("all provider adapters failed")
)

// FailureReport lists the adapter errors behind ErrAllAdaptersFailed.
// errors.Is(report, ErrAllAdaptersFailed) is true.
type FailureReport struct {
	Failures []*provider.AdapterError
}

func (r *FailureReport) Error() string {
	if len(r.Failures) == 0 {
		return ErrAllAdaptersFailed.Error() + ": no adapter available"
	}
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = f.Error()
	}
	return ErrAllAdaptersFailed.Error() + ": " + strings.Join(msgs, "; ")
}

func (r *FailureReport) Unwrap() error { return ErrAllAdaptersFailed }
