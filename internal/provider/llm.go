package provider

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdiddy/tablescout/internal/httputil"
)

// SearchPrompt is the user turn sent to generative providers.
func SearchPrompt(query, location string) string {
	return fmt.Sprintf("Find restaurant: '%s' in %s. Only include restaurants located in %s, not other cities.",
		query, location, location)
}

var statusInMessage = regexp.MustCompile(`status code:? (\d{3})`)

// StatusFromMessage recovers an HTTP status embedded in an SDK error message
// ("API returned unexpected status code: 401: ...") so FailurePolicy can
// classify it. Errors without one are returned unchanged.
func StatusFromMessage(err error) error {
	if err == nil || httputil.StatusCode(err) != 0 {
		return err
	}
	m := statusInMessage.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, _ := strconv.Atoi(m[1])
	return &httputil.StatusError{StatusCode: code, Body: err.Error()}
}
