package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/auth"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/billing"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/user"
	deck_http "github.com/reviewdeck/reviewdeck/internal/infrastructure/httpserver"
)

type authServiceMock struct {
	LoginFn    func(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*auth.AuthTokens, error)
	ValidateFn func(ctx context.Context, token string) (*auth.Claims, error)
	LogoutFn   func(ctx context.Context, userID uuid.UUID, token string) error
}

func (m *authServiceMock) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthTokens, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *authServiceMock) RefreshToken(ctx context.Context, refreshToken string) (*auth.AuthTokens, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *authServiceMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, token)
	}
	return &auth.Claims{UserID: uuid.New(), Email: "o@example.com", Role: user.RoleOwner}, nil
}
func (m *authServiceMock) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, userID, token)
	}
	return nil
}
func (m *authServiceMock) GenerateTokens(ctx context.Context, u *user.User) (*auth.AuthTokens, error) {
	return nil, fmt.Errorf("not implemented")
}

type billingServiceMock struct {
	UsableFn func(ctx context.Context, userID uuid.UUID) (bool, error)
}

func (m *billingServiceMock) GetSubscription(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *billingServiceMock) Activate(ctx context.Context, userID uuid.UUID, plan billing.Plan) (*billing.Subscription, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *billingServiceMock) Cancel(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *billingServiceMock) HasUsableSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	if m.UsableFn != nil {
		return m.UsableFn(ctx, userID)
	}
	return true, nil
}

type reviewServiceMock struct {
	ListReviewsFn func(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error)
	ReplyFn       func(ctx context.Context, reviewName, comment string) (*gbp.ReviewReply, error)
}

func (m *reviewServiceMock) ListLocations(ctx context.Context, pageSize int, pageToken string) (*gbp.LocationPage, error) {
	return &gbp.LocationPage{Locations: []*gbp.Location{{Name: "locations/l1", Title: "Shop"}}}, nil
}
func (m *reviewServiceMock) GetLocationDetail(ctx context.Context, locationName string) (*gbp.Location, error) {
	return &gbp.Location{Name: locationName, Title: "Shop"}, nil
}
func (m *reviewServiceMock) ListReviews(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
	if m.ListReviewsFn != nil {
		return m.ListReviewsFn(ctx, locationName, pageSize, pageToken)
	}
	return &gbp.ReviewPage{}, nil
}
func (m *reviewServiceMock) ReplyToReview(ctx context.Context, reviewName, comment string) (*gbp.ReviewReply, error) {
	if m.ReplyFn != nil {
		return m.ReplyFn(ctx, reviewName, comment)
	}
	return &gbp.ReviewReply{Comment: comment, UpdateTime: time.Now()}, nil
}
func (m *reviewServiceMock) ClearCache() {}

type unansweredServiceMock struct {
	ListFn func(ctx context.Context, locationName string, pageSize int) (*gbp.UnansweredPage, error)
}

func (m *unansweredServiceMock) ListUnanswered(ctx context.Context, locationName string, pageSize int) (*gbp.UnansweredPage, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, locationName, pageSize)
	}
	return &gbp.UnansweredPage{}, nil
}
func (m *unansweredServiceMock) InvalidateLocation(locationName string) {}

func newTestServer(t *testing.T, deps deck_http.ServerDeps) *httptest.Server {
	t.Helper()
	if deps.AuthService == nil {
		deps.AuthService = &authServiceMock{}
	}
	if deps.BillingService == nil {
		deps.BillingService = &billingServiceMock{}
	}
	srv := deck_http.NewServer(&deck_http.ServerConfig{Host: "127.0.0.1", Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}, logrus.New(), deps)
	ts := httptest.NewServer(srv.Echo())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("Authorization", "Bearer test-jwt")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func TestReviewRoutesRequireUsableSubscription(t *testing.T) {
	ts := newTestServer(t, deck_http.ServerDeps{
		BillingService: &billingServiceMock{UsableFn: func(ctx context.Context, userID uuid.UUID) (bool, error) { return false, nil }},
		ReviewService:  &reviewServiceMock{},
		UnansweredSvc:  &unansweredServiceMock{},
	})

	resp, _ := doJSON(t, ts, http.MethodGet, "/api/v1/locations", nil)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestListUnansweredReviews(t *testing.T) {
	unanswered := &unansweredServiceMock{
		ListFn: func(ctx context.Context, locationName string, pageSize int) (*gbp.UnansweredPage, error) {
			require.Equal(t, "locations/l1", locationName)
			require.Equal(t, 2, pageSize)
			return &gbp.UnansweredPage{
				Reviews: []*gbp.Review{
					{Name: "accounts/a/locations/l1/reviews/r1", StarRating: gbp.StarRatingTwo},
					{Name: "accounts/a/locations/l1/reviews/r2", StarRating: gbp.StarRatingFour},
				},
				HasMore:         true,
				ScannedUpstream: 6,
			}, nil
		},
	}
	ts := newTestServer(t, deck_http.ServerDeps{
		ReviewService: &reviewServiceMock{},
		UnansweredSvc: unanswered,
	})

	resp, body := doJSON(t, ts, http.MethodGet, "/api/v1/locations/l1/reviews/unanswered?page_size=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page gbp.UnansweredPage
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Reviews, 2)
	require.True(t, page.HasMore)
}

func TestUpstreamErrorKindsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		kind gbp.ErrorKind
		want int
	}{
		{gbp.ErrAuthFailed, http.StatusUnauthorized},
		{gbp.ErrPermissionDenied, http.StatusForbidden},
		{gbp.ErrNotFound, http.StatusNotFound},
		{gbp.ErrRateLimited, http.StatusTooManyRequests},
		{gbp.ErrAPIDisabled, http.StatusServiceUnavailable},
		{gbp.ErrUnknown, http.StatusBadGateway},
	}

	for _, tc := range cases {
		reviews := &reviewServiceMock{
			ListReviewsFn: func(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
				return nil, &gbp.UpstreamError{Kind: tc.kind, Message: "upstream said no"}
			},
		}
		ts := newTestServer(t, deck_http.ServerDeps{
			ReviewService: reviews,
			UnansweredSvc: &unansweredServiceMock{},
		})

		resp, _ := doJSON(t, ts, http.MethodGet, "/api/v1/locations/l1/reviews", nil)
		require.Equalf(t, tc.want, resp.StatusCode, "kind %s", tc.kind)
	}
}

func TestReplyToReviewValidatesBody(t *testing.T) {
	replied := false
	reviews := &reviewServiceMock{
		ReplyFn: func(ctx context.Context, reviewName, comment string) (*gbp.ReviewReply, error) {
			replied = true
			return &gbp.ReviewReply{Comment: comment}, nil
		},
	}
	ts := newTestServer(t, deck_http.ServerDeps{
		ReviewService: reviews,
		UnansweredSvc: &unansweredServiceMock{},
	})

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/reviews/reply", map[string]string{"review_name": "accounts/a/locations/l/reviews/r1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, replied)

	resp, _ = doJSON(t, ts, http.MethodPost, "/api/v1/reviews/reply", map[string]string{
		"review_name": "accounts/a/locations/l/reviews/r1",
		"comment":     "thank you for visiting",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, replied)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	ts := newTestServer(t, deck_http.ServerDeps{
		ReviewService: &reviewServiceMock{},
		UnansweredSvc: &unansweredServiceMock{},
	})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/locations", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
