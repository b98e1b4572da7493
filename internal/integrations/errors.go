// Package integrations holds the conversational-backend API clients and the
// reset protocol that spans them.
package integrations

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoBackendConfigured means the character has no integration bound.
	ErrNoBackendConfigured = errors.New("no backend configured")

	// ErrAuthFailed means the backend rejected credentials and a refresh
	// attempt (where the backend supports one) did not recover them.
	ErrAuthFailed = errors.New("backend authorization failed")

	// ErrBackendUnavailable means the backend answered but without a usable
	// result, e.g. character.ai returning an empty chat handle.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendError wraps a definitive backend-side failure.
	ErrBackendError = errors.New("backend error")
)

// HTTPError carries a non-2xx backend response. The body is kept for
// diagnostics; credentials never appear in it.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is an HTTP 401 from a backend.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusUnauthorized
}
