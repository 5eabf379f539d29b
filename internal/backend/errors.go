package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GenericFailureMessage is shown when the backend gives no usable reason.
const GenericFailureMessage = "Something went wrong while talking to the assistant. Please try again."

// NetworkFailureMessage is shown when a request could not complete at all.
const NetworkFailureMessage = "Could not reach the assistant. Check that the server is running and try again."

// RejectionError is returned when the backend answers with a non-success status.
type RejectionError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, msg, e.StatusCode)
}

// UserMessage returns the backend-supplied reason, or a generic one.
func (e *RejectionError) UserMessage() string {
	if e.Message == "" {
		return GenericFailureMessage
	}
	return e.Message
}

// NetworkError is returned when a request could not complete.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage always returns the generic network text.
func (e *NetworkError) UserMessage() string {
	return NetworkFailureMessage
}

// IsRejection reports whether err is a backend rejection.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// UserMessage converts any error into text fit for the user. Errors from
// other packages opt in by implementing UserMessage() string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}

	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}

	return GenericFailureMessage
}

// extractMessage pulls a human-readable reason out of an error body. It
// understands {"detail": "..."}, FastAPI's {"detail": [{"msg": ...}]},
// {"error": "..."} and {"message": "..."}.
func extractMessage(body []byte) string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}

	for _, field := range []string{"detail", "error", "message"} {
		value, ok := raw[field]
		if !ok {
			continue
		}

		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(value, &items); err == nil {
			var parts []string
			for _, item := range items {
				if m := strings.TrimSpace(item.Msg); m != "" {
					parts = append(parts, m)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}

	return ""
}
