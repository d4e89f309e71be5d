package chat

import (
	"encoding/json"
	"errors"
	"strings"
)

// invalidMessage is the client-facing text for every rejected message.
const invalidMessage = "The 'message' field must be a non-empty string."

// ValidationError reports malformed client input. It is the only error the
// chat core ever hands back to its caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseMessage validates the raw JSON value of the "message" field. A
// missing field arrives as an empty RawMessage. The returned string is the
// message exactly as sent; only the emptiness check uses the trimmed form.
func ParseMessage(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", &ValidationError{Reason: invalidMessage}
	}

	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return "", &ValidationError{Reason: invalidMessage}
	}

	if err := Validate(message); err != nil {
		return "", err
	}
	return message, nil
}

// Validate rejects empty and whitespace-only messages.
func Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return &ValidationError{Reason: invalidMessage}
	}
	return nil
}
