package gbp

import "fmt"

// ErrorKind classifies an upstream failure into the closed taxonomy every
// caller above the transport boundary works with.
type ErrorKind string

const (
	ErrAuthFailed       ErrorKind = "AUTH_FAILED"
	ErrPermissionDenied ErrorKind = "PERMISSION_DENIED"
	ErrAPIDisabled      ErrorKind = "API_DISABLED"
	ErrNotFound         ErrorKind = "NOT_FOUND"
	ErrRateLimited      ErrorKind = "RATE_LIMITED"
	ErrUnknown          ErrorKind = "UNKNOWN"
)

// UpstreamError is the sole error type crossing the access-layer boundary.
// It is constructed once where the upstream failure is caught and never
// mutated afterwards.
type UpstreamError struct {
	Kind       ErrorKind `json:"kind"`
	HTTPStatus int       `json:"http_status"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

func (e *UpstreamError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsKind reports whether err is an UpstreamError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	ue, ok := err.(*UpstreamError)
	return ok && ue.Kind == kind
}
