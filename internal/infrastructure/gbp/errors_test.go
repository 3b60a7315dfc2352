package gbp

import (
	"errors"
	"testing"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

func TestNormalizeResponseStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		message string
		want    gbp.ErrorKind
	}{
		{401, "invalid credentials", gbp.ErrAuthFailed},
		{403, "caller lacks permission", gbp.ErrPermissionDenied},
		{403, "My Business API has not been used in project 1234 before", gbp.ErrAPIDisabled},
		{404, "location not found", gbp.ErrNotFound},
		{429, "quota exceeded", gbp.ErrRateLimited},
		{500, "internal error", gbp.ErrUnknown},
		{400, "bad page token", gbp.ErrUnknown},
	}
	for _, tc := range cases {
		got := NormalizeResponse(tc.status, nil, tc.message)
		if got.Kind != tc.want {
			t.Fatalf("status %d %q: got kind %s, want %s", tc.status, tc.message, got.Kind, tc.want)
		}
		if got.HTTPStatus != tc.status {
			t.Fatalf("status %d: got HTTPStatus %d", tc.status, got.HTTPStatus)
		}
		if got.Message != tc.message {
			t.Fatalf("fallback message must be carried: got %q", got.Message)
		}
	}
}

func TestNormalizeResponsePrefersStructuredBody(t *testing.T) {
	body := []byte(`{"error":{"code":403,"message":"Google My Business API is disabled for this project","status":"PERMISSION_DENIED"}}`)
	got := NormalizeResponse(403, body, "fallback")
	if got.Kind != gbp.ErrAPIDisabled {
		t.Fatalf("expected API_DISABLED from structured body, got %s", got.Kind)
	}
	if got.Message == "fallback" {
		t.Fatalf("structured body message must win over fallback")
	}
}

func TestNormalizeResponseIsIdempotent(t *testing.T) {
	body := []byte(`{"error":{"code":429,"message":"Quota exceeded"}}`)
	first := NormalizeResponse(429, body, "fallback")
	second := NormalizeResponse(429, body, "fallback")
	if first.Kind != second.Kind || first.HTTPStatus != second.HTTPStatus {
		t.Fatalf("normalizing the same error twice diverged: %+v vs %+v", first, second)
	}
}

func TestNormalizeErrorPassesThroughNormalized(t *testing.T) {
	original := &gbp.UpstreamError{Kind: gbp.ErrNotFound, HTTPStatus: 404, Message: "gone"}
	got := NormalizeError(original, "fallback")
	if got != original {
		t.Fatalf("already-normalized error must pass through untouched")
	}
}

func TestNormalizeErrorWrapsRawFailures(t *testing.T) {
	raw := errors.New("connection reset by peer")
	got := NormalizeError(raw, "GET /reviews")
	if got.Kind != gbp.ErrUnknown {
		t.Fatalf("raw failures map to UNKNOWN, got %s", got.Kind)
	}
	if !errors.Is(got, raw) {
		t.Fatalf("cause must remain unwrappable")
	}
}
