package hydro

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTransport wraps network level failures talking to the backend.
	ErrTransport = errors.New("hydro: backend unreachable")
	// ErrMissingCredential is returned before any I/O when a call needs a token.
	ErrMissingCredential = errors.New("hydro: credential required")
)

// APIError is a backend reported failure with its optional message.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hydro: %s: status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("hydro: %s: status %d: %s", e.Operation, e.Status, e.Message)
}

// Message returns the backend supplied message for err, or fallback when the
// error carries none (transport failures, empty bodies).
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

const maxErrorBody = 64 << 10

func decodeAPIError(operation string, resp *http.Response) error {
	apiErr := &APIError{Operation: operation, Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		default:
			apiErr.Message = payload.Msg
		}
	}
	return apiErr
}
