package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/pdiddy/tablescout/internal/httputil"
)

// Kind classifies an adapter failure.
type Kind int

const (
	// KindTimeout means the adapter did not answer within its timeout or the
	// pipeline deadline.
	KindTimeout Kind = iota + 1
	// KindUnavailable is a transient failure: network error, 5xx, rate limit.
	KindUnavailable
	// KindMisconfigured is a hard failure caused by configuration or
	// authorization. It disables structured adapters for the process lifetime.
	KindMisconfigured
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindMisconfigured:
		return "misconfigured"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AdapterError is the only error shape that leaves provider.Call.
type AdapterError struct {
	Kind       Kind
	ProviderID string
	Message    string
	Err        error
}

func (e *AdapterError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.ProviderID, e.Kind, msg)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Misconfigured builds a KindMisconfigured error. Adapters use it when a
// required credential is missing so the fallback policy can react.
func Misconfigured(providerID, format string, args ...any) *AdapterError {
	return &AdapterError{
		Kind:       KindMisconfigured,
		ProviderID: providerID,
		Message:    fmt.Sprintf(format, args...),
	}
}

// FailurePolicy maps raw adapter errors to a Kind. Only statuses in
// HardStatuses are hard; every other status is soft. SoftStatuses wins when a
// code appears in both lists.
type FailurePolicy struct {
	HardStatuses []int
	SoftStatuses []int
}

// DefaultHardStatuses are the credential and endpoint failures: a rejected
// key, a forbidden project, an unknown model or path. A 400 is not listed
// because providers return it for unresolvable user input such as a
// location that cannot be geocoded.
var DefaultHardStatuses = []int{
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
}

// DefaultFailurePolicy disables on credential or endpoint errors only.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		HardStatuses: slices.Clone(DefaultHardStatuses),
		SoftStatuses: []int{http.StatusRequestTimeout, http.StatusTooManyRequests},
	}
}

// Classify wraps err as an *AdapterError for providerID. An err that already
// is an *AdapterError is returned with its provider id filled in.
func (p FailurePolicy) Classify(providerID string, err error) *AdapterError {
	if err == nil {
		return nil
	}

	var ae *AdapterError
	if errors.As(err, &ae) {
		out := *ae
		if out.ProviderID == "" {
			out.ProviderID = providerID
		}
		return &out
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &AdapterError{Kind: KindTimeout, ProviderID: providerID, Message: "deadline exceeded", Err: err}
	}

	kind := KindUnavailable
	if code := httputil.StatusCode(err); code != 0 {
		kind = p.kindForStatus(code)
	}
	return &AdapterError{Kind: kind, ProviderID: providerID, Err: err}
}

func (p FailurePolicy) kindForStatus(code int) Kind {
	if slices.Contains(p.HardStatuses, code) && !slices.Contains(p.SoftStatuses, code) {
		return KindMisconfigured
	}
	return KindUnavailable
}
