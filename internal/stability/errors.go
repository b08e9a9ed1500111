package stability

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the Stability API. The upstream error
// envelope is {id, name, errors[]}; responses that are not JSON keep the raw
// body text instead.
type APIError struct {
	Path       string
	StatusCode int
	ID         string
	Name       string
	Errors     []string
	Raw        string
}

// AuthFailure reports whether the error indicates a rejected credential,
// which the key pool uses to decide rotation.
func (e *APIError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("stability: %s: status %d", e.Path, e.StatusCode)
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	} else if e.Raw != "" {
		msg += ": " + e.Raw
	}
	return msg
}

func parseAPIError(path string, status int, body []byte) error {
	apiErr := &APIError{Path: path, StatusCode: status}

	var envelope struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Name != "" || len(envelope.Errors) > 0) {
		apiErr.ID = envelope.ID
		apiErr.Name = envelope.Name
		apiErr.Errors = envelope.Errors
	} else {
		apiErr.Raw = strings.TrimSpace(string(body))
	}
	return apiErr
}
