package ports

import (
	"context"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

// BusinessProfileAPI is the raw upstream transport. Implementations perform a
// single HTTPS call per method, attach the bearer credential, and normalize
// every failure into *gbp.UpstreamError. No retry, caching or pacing here —
// that is the executor's job.
type BusinessProfileAPI interface {
	ListAccounts(ctx context.Context) ([]*gbp.Account, error)
	ListLocations(ctx context.Context, parent string, pageSize int, pageToken, fieldMask string) (*gbp.LocationPage, error)
	GetLocation(ctx context.Context, name, fieldMask string) (*gbp.Location, error)
	ListReviews(ctx context.Context, parent string, pageSize int, pageToken string) (*gbp.ReviewPage, error)
	UpdateReviewReply(ctx context.Context, name, comment string) (*gbp.ReviewReply, error)
}

// Throttler enforces minimum spacing between upstream calls. Throttle blocks
// the caller (honoring ctx) until the shared slot is free, then records the
// call time. One instance guards the whole upstream quota pool.
type Throttler interface {
	Throttle(ctx context.Context) error
}

// GoogleTokenSource supplies a valid bearer token for upstream requests.
type GoogleTokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ReviewService is the typed access layer over the resilient call pipeline.
type ReviewService interface {
	ListLocations(ctx context.Context, pageSize int, pageToken string) (*gbp.LocationPage, error)
	GetLocationDetail(ctx context.Context, locationName string) (*gbp.Location, error)
	ListReviews(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error)
	ReplyToReview(ctx context.Context, reviewName, comment string) (*gbp.ReviewReply, error)
	// ClearCache drops all cached upstream responses (administrative).
	ClearCache()
}

// ReviewLister is the narrow slice of ReviewService the paginator needs.
type ReviewLister interface {
	ListReviews(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error)
}

// UnansweredReviewService serves fixed-size pages of unanswered reviews by
// accumulating upstream pages behind a per-location cursor.
type UnansweredReviewService interface {
	ListUnanswered(ctx context.Context, locationName string, pageSize int) (*gbp.UnansweredPage, error)
	// InvalidateLocation drops the cursor for a location, forcing the next
	// request to re-scan from the first upstream page.
	InvalidateLocation(locationName string)
}

// CursorInvalidator is what the access layer calls after a successful reply
// changes a location's answered/unanswered partition.
type CursorInvalidator interface {
	InvalidateLocation(locationName string)
}
