package httpapi

import (
	"encoding/json"

	"github.com/autobridge/autobridge-go/internal/core/domain"
)

// errorEnvelope matches the backend's canonical error shape. Some endpoints
// historically used "message" instead of "error"; accept both.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns a non-2xx response into a *domain.APIError, pulling the
// human-readable message out of the error envelope when one is present.
// Callers show the message; when the body carried none they fall back to a
// generic message with the status code.
func decodeError(status int, body []byte) error {
	var env errorEnvelope
	msg := ""
	if err := json.Unmarshal(body, &env); err == nil {
		msg = env.Error
		if msg == "" {
			msg = env.Message
		}
	}
	return &domain.APIError{StatusCode: status, Message: msg}
}
