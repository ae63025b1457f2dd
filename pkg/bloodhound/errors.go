package bloodhound

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/houndview/pkg/errors"
)

// TransportError is a non-2xx API answer.
type TransportError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// HTTPStatus returns the response status.
func (e *TransportError) HTTPStatus() int { return e.Status }

// ServerMessage returns the message the API reported, if any.
func (e *TransportError) ServerMessage() string { return e.Message }

// Code classifies the failure.
func (e *TransportError) Code() errors.Code { return errors.CodeForStatus(e.Status) }

// apiErrorBody is the API's error envelope.
type apiErrorBody struct {
	HTTPStatus int    `json:"http_status"`
	RequestID  string `json:"request_id"`
	Errors     []struct {
		Context string `json:"context"`
		Message string `json:"message"`
	} `json:"errors"`
}

// parseErrorBody extracts the joined error messages, or a trimmed plain
// text body when the envelope does not parse.
func parseErrorBody(body []byte) (msg, requestID string) {
	var env apiErrorBody
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		return strings.Join(msgs, "; "), env.RequestID
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 512 || strings.HasPrefix(text, "<") {
		return "", ""
	}
	return text, ""
}
