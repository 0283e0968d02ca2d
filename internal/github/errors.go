package github

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the GitHub API
type APIError struct {
	StatusCode         int
	URL                string
	Message            string
	RateLimitExhausted bool
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api error for %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api error for %s: HTTP %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a rate-limit rejection
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.RateLimitExhausted
}

// IsUnavailable reports whether err signals the API is rate-limited or down
func IsUnavailable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return IsRateLimited(err) || apiErr.StatusCode >= http.StatusInternalServerError
}
