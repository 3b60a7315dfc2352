package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// ClientConfig holds the upstream endpoints. The Business Profile surface is
// split across three Google APIs; the base URLs are overridable for tests.
type ClientConfig struct {
	AccountsBaseURL  string
	LocationsBaseURL string
	ReviewsBaseURL   string
	Timeout          time.Duration
}

// DefaultClientConfig points at the production Google endpoints.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		AccountsBaseURL:  "https://mybusinessaccountmanagement.googleapis.com/v1",
		LocationsBaseURL: "https://mybusinessbusinessinformation.googleapis.com/v1",
		ReviewsBaseURL:   "https://mybusiness.googleapis.com/v4",
		Timeout:          30 * time.Second,
	}
}

// Client implements ports.BusinessProfileAPI over HTTPS. One method is one
// upstream call; every failure leaves here as *gbp.UpstreamError.
type Client struct {
	http   *http.Client
	tokens ports.GoogleTokenSource
	cfg    *ClientConfig
	logger *logrus.Logger
}

func NewClient(cfg *ClientConfig, tokens ports.GoogleTokenSource, logger *logrus.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
	}
}

// wire types, Google JSON casing

type wireAccount struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
	Type        string `json:"type"`
}

type wireAccountsResponse struct {
	Accounts      []wireAccount `json:"accounts"`
	NextPageToken string        `json:"nextPageToken"`
}

type wireAddress struct {
	AddressLines       []string `json:"addressLines"`
	Locality           string   `json:"locality"`
	AdministrativeArea string   `json:"administrativeArea"`
	PostalCode         string   `json:"postalCode"`
	RegionCode         string   `json:"regionCode"`
}

type wirePhoneNumbers struct {
	PrimaryPhone string `json:"primaryPhone"`
}

type wireLocation struct {
	Name              string            `json:"name"`
	Title             string            `json:"title"`
	WebsiteURI        string            `json:"websiteUri"`
	PhoneNumbers      *wirePhoneNumbers `json:"phoneNumbers"`
	StorefrontAddress *wireAddress      `json:"storefrontAddress"`
}

type wireLocationsResponse struct {
	Locations     []wireLocation `json:"locations"`
	NextPageToken string         `json:"nextPageToken"`
	TotalSize     int            `json:"totalSize"`
}

type wireReviewer struct {
	ProfilePhotoURL string `json:"profilePhotoUrl"`
	DisplayName     string `json:"displayName"`
	IsAnonymous     bool   `json:"isAnonymous"`
}

type wireReviewReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"updateTime"`
}

type wireReview struct {
	Name        string           `json:"name"`
	Reviewer    wireReviewer     `json:"reviewer"`
	StarRating  string           `json:"starRating"`
	Comment     string           `json:"comment"`
	CreateTime  time.Time        `json:"createTime"`
	UpdateTime  time.Time        `json:"updateTime"`
	ReviewReply *wireReviewReply `json:"reviewReply"`
}

type wireReviewsResponse struct {
	Reviews          []wireReview `json:"reviews"`
	AverageRating    float64      `json:"averageRating"`
	TotalReviewCount int          `json:"totalReviewCount"`
	NextPageToken    string       `json:"nextPageToken"`
}

// ListAccounts implements ports.BusinessProfileAPI.
func (c *Client) ListAccounts(ctx context.Context) ([]*gbp.Account, error) {
	u := c.cfg.AccountsBaseURL + "/accounts"
	var resp wireAccountsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	accounts := make([]*gbp.Account, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accounts = append(accounts, &gbp.Account{Name: a.Name, AccountName: a.AccountName, Type: a.Type})
	}
	return accounts, nil
}

// ListLocations implements ports.BusinessProfileAPI.
func (c *Client) ListLocations(ctx context.Context, parent string, pageSize int, pageToken, fieldMask string) (*gbp.LocationPage, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	if fieldMask != "" {
		q.Set("readMask", fieldMask)
	}
	u := fmt.Sprintf("%s/%s/locations?%s", c.cfg.LocationsBaseURL, parent, q.Encode())

	var resp wireLocationsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	page := &gbp.LocationPage{
		Locations:     make([]*gbp.Location, 0, len(resp.Locations)),
		NextPageToken: resp.NextPageToken,
		TotalSize:     resp.TotalSize,
	}
	for _, l := range resp.Locations {
		page.Locations = append(page.Locations, mapLocation(l))
	}
	return page, nil
}

// GetLocation implements ports.BusinessProfileAPI.
func (c *Client) GetLocation(ctx context.Context, name, fieldMask string) (*gbp.Location, error) {
	q := url.Values{}
	if fieldMask != "" {
		q.Set("readMask", fieldMask)
	}
	u := fmt.Sprintf("%s/%s?%s", c.cfg.LocationsBaseURL, name, q.Encode())

	var resp wireLocation
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	loc := mapLocation(resp)
	if loc.Name == "" {
		loc.Name = name
	}
	return loc, nil
}

// ListReviews implements ports.BusinessProfileAPI.
func (c *Client) ListReviews(ctx context.Context, parent string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u := fmt.Sprintf("%s/%s/reviews?%s", c.cfg.ReviewsBaseURL, parent, q.Encode())

	var resp wireReviewsResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	page := &gbp.ReviewPage{
		Reviews:          make([]*gbp.Review, 0, len(resp.Reviews)),
		NextPageToken:    resp.NextPageToken,
		AverageRating:    resp.AverageRating,
		TotalReviewCount: resp.TotalReviewCount,
	}
	for _, r := range resp.Reviews {
		page.Reviews = append(page.Reviews, mapReview(r))
	}
	return page, nil
}

// UpdateReviewReply implements ports.BusinessProfileAPI. Upstream upserts the
// reply, so re-sending after an ambiguous failure is safe.
func (c *Client) UpdateReviewReply(ctx context.Context, name, comment string) (*gbp.ReviewReply, error) {
	u := fmt.Sprintf("%s/%s/reply", c.cfg.ReviewsBaseURL, name)
	body := map[string]string{"comment": comment}

	var resp wireReviewReply
	if err := c.doJSON(ctx, http.MethodPut, u, body, &resp); err != nil {
		return nil, err
	}
	return &gbp.ReviewReply{Comment: resp.Comment, UpdateTime: resp.UpdateTime}, nil
}

// doJSON performs one authenticated request and decodes the response into
// out. Failures are normalized before returning.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &gbp.UpstreamError{Kind: gbp.ErrAuthFailed, Message: "no valid credential: " + err.Error(), Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NormalizeError(err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return NormalizeError(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NormalizeError(err, method+" "+rawURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NormalizeError(err, "read response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "url": rawURL}).Debug("upstream request failed")
		}
		return NormalizeResponse(resp.StatusCode, data, http.StatusText(resp.StatusCode))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return NormalizeError(err, "decode response body")
		}
	}
	return nil
}

func mapLocation(l wireLocation) *gbp.Location {
	loc := &gbp.Location{
		Name:       l.Name,
		Title:      l.Title,
		WebsiteURI: l.WebsiteURI,
	}
	if l.PhoneNumbers != nil {
		loc.PrimaryPhone = l.PhoneNumbers.PrimaryPhone
	}
	if l.StorefrontAddress != nil {
		loc.Address = &gbp.Address{
			AddressLines: l.StorefrontAddress.AddressLines,
			Locality:     l.StorefrontAddress.Locality,
			Region:       l.StorefrontAddress.AdministrativeArea,
			PostalCode:   l.StorefrontAddress.PostalCode,
			RegionCode:   l.StorefrontAddress.RegionCode,
		}
	}
	return loc
}

func mapReview(r wireReview) *gbp.Review {
	rev := &gbp.Review{
		Name:       r.Name,
		Reviewer:   gbp.Reviewer{DisplayName: r.Reviewer.DisplayName, ProfilePhotoURL: r.Reviewer.ProfilePhotoURL, IsAnonymous: r.Reviewer.IsAnonymous},
		StarRating: gbp.StarRating(r.StarRating),
		Comment:    r.Comment,
		CreateTime: r.CreateTime,
		UpdateTime: r.UpdateTime,
	}
	if r.ReviewReply != nil {
		rev.Reply = &gbp.ReviewReply{Comment: r.ReviewReply.Comment, UpdateTime: r.ReviewReply.UpdateTime}
	}
	return rev
}
