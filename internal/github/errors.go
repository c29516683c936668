package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is an unsuccessful upstream outcome. StatusCode is zero when the
// request never produced an HTTP response (DNS, TLS, connection reset,
// context cancellation). Message is always human-readable.
type APIError struct {
	StatusCode int
	Message    string

	// DocumentationURL is set when GitHub included one in the error body.
	DocumentationURL string

	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "github: " + e.Message
	}
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// IsNotFound reports whether err is a 404 from the upstream.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// parseAPIError takes the message from GitHub's error body when there is one
// and falls back to a generic status description otherwise.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		apiErr.Message = parsed.Get("message").String()
		apiErr.DocumentationURL = parsed.Get("documentation_url").String()
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status code %d", status)
	}
	return apiErr
}

func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), cause: err}
}
