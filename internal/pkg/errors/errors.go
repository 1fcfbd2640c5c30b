package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ConfigError collects every configuration problem found during validation so
// the operator sees the whole list at once instead of fixing one field per restart.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// RateLimitError is the cooldown signal from the Discord API. It is not a
// failure: the caller waits RetryAfter and repeats the same call.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

var (
	// ErrRunActive is returned when a pipeline run is triggered while another
	// one is still in flight.
	ErrRunActive = errors.New("a run is already in progress")

	ErrUnauthorized     = errors.New("discord rejected the bot token")
	ErrCategoryNotFound = errors.New("configured logs category not found or not a category")
)

// IsFatal reports whether err must abort a whole provisioning pass rather
// than a single resource.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrCategoryNotFound)
}

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}
