package gbp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

// googleErrorBody mirrors the standard Google API error envelope.
type googleErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NormalizeResponse maps an upstream HTTP failure into the closed taxonomy.
// It inspects, in order: the structured error body, the HTTP status code,
// then the fallback message. The result is the only error shape allowed past
// the transport boundary.
func NormalizeResponse(httpStatus int, body []byte, fallback string) *gbp.UpstreamError {
	message := fallback
	status := httpStatus

	var parsed googleErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
		if parsed.Error.Code != 0 {
			status = parsed.Error.Code
		}
	}

	return &gbp.UpstreamError{
		Kind:       kindForStatus(status, message),
		HTTPStatus: status,
		Message:    message,
	}
}

// NormalizeError wraps a non-HTTP failure (DNS, reset, timeout) as UNKNOWN,
// or passes an already-normalized error through untouched.
func NormalizeError(err error, fallback string) *gbp.UpstreamError {
	var ue *gbp.UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	message := fallback
	if err != nil {
		message = fallback + ": " + err.Error()
	}
	return &gbp.UpstreamError{
		Kind:    gbp.ErrUnknown,
		Message: message,
		Err:     err,
	}
}

func kindForStatus(status int, message string) gbp.ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return gbp.ErrAuthFailed
	case http.StatusForbidden:
		if apiDisabledMessage(message) {
			return gbp.ErrAPIDisabled
		}
		return gbp.ErrPermissionDenied
	case http.StatusNotFound:
		return gbp.ErrNotFound
	case http.StatusTooManyRequests:
		return gbp.ErrRateLimited
	default:
		return gbp.ErrUnknown
	}
}

// apiDisabledMessage detects the Google wording for a capability that exists
// but is not enabled for the calling project.
func apiDisabledMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "has not been used in project") ||
		strings.Contains(m, "is disabled") ||
		strings.Contains(m, "api not enabled")
}
