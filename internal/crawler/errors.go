package crawler

import (
	"fmt"
	"net/http"
)

// NavigationError reports a failed navigation: a timeout, a network failure,
// or a non-2xx document status.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("navigate %s: status %d: %v", e.URL, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("navigate %s: HTTP %d %s", e.URL, e.Status, http.StatusText(e.Status))
	}
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// CheckStatus returns a NavigationError for non-2xx statuses. A zero status
// means no document response was observed and is accepted.
func CheckStatus(rawURL string, status int) error {
	if status == 0 || (status >= 200 && status < 300) {
		return nil
	}
	return &NavigationError{URL: rawURL, Status: status}
}

// FetchExhausted is returned once every attempt allowed by a RetryPolicy has
// failed.
type FetchExhausted struct {
	URL      string
	Attempts int
	Last     error
}

func (e *FetchExhausted) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *FetchExhausted) Unwrap() error {
	return e.Last
}
