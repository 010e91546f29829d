package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound indicates the backend answered 404.
	ErrNotFound = errors.New("backend: not found")
	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("backend: unavailable")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// MessageOr returns the human readable backend message carried by err, or
// fallback when there is none.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// errorBody matches the backend's error envelope. Message is either a string
// or a list of validation messages.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func parseErrorMessage(body []byte) string {
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if len(env.Message) > 0 {
		var single string
		if err := json.Unmarshal(env.Message, &single); err == nil {
			return single
		}
		var many []string
		if err := json.Unmarshal(env.Message, &many); err == nil {
			return strings.Join(many, ", ")
		}
	}
	return env.Error
}
