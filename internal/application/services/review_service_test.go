package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	impl "github.com/reviewdeck/reviewdeck/internal/application/services"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	upstream "github.com/reviewdeck/reviewdeck/internal/infrastructure/gbp"
	"github.com/reviewdeck/reviewdeck/internal/infrastructure/memcache"
)

type apiMock struct {
	listAccountsFn      func(ctx context.Context) ([]*gbp.Account, error)
	listLocationsFn     func(ctx context.Context, parent string, pageSize int, pageToken, fieldMask string) (*gbp.LocationPage, error)
	getLocationFn       func(ctx context.Context, name, fieldMask string) (*gbp.Location, error)
	listReviewsFn       func(ctx context.Context, parent string, pageSize int, pageToken string) (*gbp.ReviewPage, error)
	updateReviewReplyFn func(ctx context.Context, name, comment string) (*gbp.ReviewReply, error)

	listReviewsCalls int
	getLocationCalls int
	replyCalls       int
}

func (m *apiMock) ListAccounts(ctx context.Context) ([]*gbp.Account, error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn(ctx)
	}
	return []*gbp.Account{{Name: "accounts/a", AccountName: "Test Business"}}, nil
}

func (m *apiMock) ListLocations(ctx context.Context, parent string, pageSize int, pageToken, fieldMask string) (*gbp.LocationPage, error) {
	if m.listLocationsFn != nil {
		return m.listLocationsFn(ctx, parent, pageSize, pageToken, fieldMask)
	}
	return &gbp.LocationPage{}, nil
}

func (m *apiMock) GetLocation(ctx context.Context, name, fieldMask string) (*gbp.Location, error) {
	m.getLocationCalls++
	if m.getLocationFn != nil {
		return m.getLocationFn(ctx, name, fieldMask)
	}
	return &gbp.Location{Name: name, Title: "Shop"}, nil
}

func (m *apiMock) ListReviews(ctx context.Context, parent string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
	m.listReviewsCalls++
	if m.listReviewsFn != nil {
		return m.listReviewsFn(ctx, parent, pageSize, pageToken)
	}
	return &gbp.ReviewPage{Reviews: []*gbp.Review{{Name: parent + "/reviews/r1"}}}, nil
}

func (m *apiMock) UpdateReviewReply(ctx context.Context, name, comment string) (*gbp.ReviewReply, error) {
	m.replyCalls++
	if m.updateReviewReplyFn != nil {
		return m.updateReviewReplyFn(ctx, name, comment)
	}
	return &gbp.ReviewReply{Comment: comment, UpdateTime: time.Now()}, nil
}

type invalidatorMock struct{ locations []string }

func (m *invalidatorMock) InvalidateLocation(locationName string) {
	m.locations = append(m.locations, locationName)
}

func newReviewService(api *apiMock) (*impl.ReviewService, *memcache.Store) {
	cache := memcache.New(0)
	throttler := upstream.NewSpacingThrottler(0)
	executor := upstream.NewExecutor(cache, throttler, upstream.DefaultRetryPolicy(), nil)
	return impl.NewReviewService(api, executor, cache, nil, nil), cache
}

func TestListReviewsServedFromCache(t *testing.T) {
	api := &apiMock{}
	svc, _ := newReviewService(api)

	for i := 0; i < 3; i++ {
		if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if api.listReviewsCalls != 1 {
		t.Fatalf("expected one upstream call, got %d", api.listReviewsCalls)
	}

	// a different page token is a different cache entry
	if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.listReviewsCalls != 2 {
		t.Fatalf("expected a second upstream call for a new token, got %d", api.listReviewsCalls)
	}
}

func TestReplyAlwaysHitsUpstreamAndInvalidates(t *testing.T) {
	api := &apiMock{}
	svc, _ := newReviewService(api)
	inv := &invalidatorMock{}
	svc.SetCursorInvalidator(inv)

	// prime the review-page cache for the location
	if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ReplyToReview(context.Background(), "accounts/a/locations/l/reviews/r1", "thank you"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if api.replyCalls != 2 {
		t.Fatalf("replies must never be cached: got %d upstream calls", api.replyCalls)
	}
	if len(inv.locations) != 2 || inv.locations[0] != "accounts/a/locations/l" {
		t.Fatalf("cursor invalidation missing or wrong location: %v", inv.locations)
	}

	// cached review pages were dropped, so listing fetches upstream again
	if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.listReviewsCalls != 2 {
		t.Fatalf("expected review pages re-fetched after reply, got %d calls", api.listReviewsCalls)
	}
}

func TestReplyRejectsEmptyComment(t *testing.T) {
	api := &apiMock{}
	svc, _ := newReviewService(api)

	_, err := svc.ReplyToReview(context.Background(), "accounts/a/locations/l/reviews/r1", "   ")
	if !errors.Is(err, impl.ErrEmptyReplyComment) {
		t.Fatalf("expected ErrEmptyReplyComment, got %v", err)
	}
	if api.replyCalls != 0 {
		t.Fatalf("blank comment must not reach upstream")
	}
}

func TestReplyInvalidatesPagesListedByBareLocationName(t *testing.T) {
	api := &apiMock{}
	svc, _ := newReviewService(api)
	inv := &invalidatorMock{}
	svc.SetCursorInvalidator(inv)

	// the HTTP surface lists with the bare name; the review resource name is
	// account-qualified — both must resolve to the same cache entries
	if _, err := svc.ListReviews(context.Background(), "locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ReplyToReview(context.Background(), "accounts/a/locations/l/reviews/r1", "thank you"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ListReviews(context.Background(), "locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.listReviewsCalls != 2 {
		t.Fatalf("stale page served from cache after reply: %d upstream calls", api.listReviewsCalls)
	}
	if len(inv.locations) != 1 || inv.locations[0] != "accounts/a/locations/l" {
		t.Fatalf("cursor invalidation missing or wrong location: %v", inv.locations)
	}
}

func TestListReviewsQualifiesUpstreamParent(t *testing.T) {
	var parents []string
	api := &apiMock{
		listReviewsFn: func(ctx context.Context, parent string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
			parents = append(parents, parent)
			return &gbp.ReviewPage{}, nil
		},
	}
	svc, _ := newReviewService(api)

	if _, err := svc.ListReviews(context.Background(), "locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parents) != 1 || parents[0] != "accounts/a/locations/l" {
		t.Fatalf("expected account-qualified parent for the reviews call, got %v", parents)
	}
}

func TestGetLocationDetailFallsBackToSmallerMask(t *testing.T) {
	api := &apiMock{
		getLocationFn: func(ctx context.Context, name, fieldMask string) (*gbp.Location, error) {
			if fieldMask == "name,title,phoneNumbers,websiteUri,storefrontAddress" {
				return nil, &gbp.UpstreamError{Kind: gbp.ErrPermissionDenied, HTTPStatus: 403, Message: "field not readable"}
			}
			return &gbp.Location{Name: name, Title: "Shop", Address: &gbp.Address{Locality: "Springfield"}}, nil
		},
	}
	svc, _ := newReviewService(api)

	loc, err := svc.GetLocationDetail(context.Background(), "locations/l")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Address == nil || loc.Address.Locality != "Springfield" {
		t.Fatalf("expected address from the fallback mask")
	}
	if loc.AddressUnavailable {
		t.Fatalf("address was resolved, marker must be unset")
	}
	if api.getLocationCalls != 2 {
		t.Fatalf("expected 2 mask attempts, got %d", api.getLocationCalls)
	}
}

func TestGetLocationDetailMarksAddressUnavailable(t *testing.T) {
	api := &apiMock{
		getLocationFn: func(ctx context.Context, name, fieldMask string) (*gbp.Location, error) {
			return &gbp.Location{Name: name, Title: "Shop"}, nil
		},
	}
	svc, _ := newReviewService(api)

	loc, err := svc.GetLocationDetail(context.Background(), "locations/l")
	if err != nil {
		t.Fatalf("a missing address must never fail the lookup: %v", err)
	}
	if !loc.AddressUnavailable {
		t.Fatalf("expected explicit address-unavailable marker")
	}
}

func TestGetLocationDetailStopsOnAuthFailure(t *testing.T) {
	api := &apiMock{
		getLocationFn: func(ctx context.Context, name, fieldMask string) (*gbp.Location, error) {
			return nil, &gbp.UpstreamError{Kind: gbp.ErrAuthFailed, HTTPStatus: 401, Message: "expired"}
		},
	}
	svc, _ := newReviewService(api)

	_, err := svc.GetLocationDetail(context.Background(), "locations/l")
	if !gbp.IsKind(err, gbp.ErrAuthFailed) {
		t.Fatalf("expected AUTH_FAILED, got %v", err)
	}
	if api.getLocationCalls != 1 {
		t.Fatalf("bad credential must not walk the remaining masks, got %d calls", api.getLocationCalls)
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	api := &apiMock{}
	svc, _ := newReviewService(api)

	if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.ClearCache()
	if _, err := svc.ListReviews(context.Background(), "accounts/a/locations/l", 10, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.listReviewsCalls != 2 {
		t.Fatalf("expected re-fetch after ClearCache, got %d calls", api.listReviewsCalls)
	}
}
