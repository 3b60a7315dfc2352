package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
	upstream "github.com/reviewdeck/reviewdeck/internal/infrastructure/gbp"
)

// locationFieldMasks are tried in order when fetching location detail. The
// upstream rejects masks referencing fields the caller cannot read, so we
// degrade to smaller masks until one succeeds. First success wins.
var locationFieldMasks = []string{
	"name,title,phoneNumbers,websiteUri,storefrontAddress",
	"name,title,storefrontAddress",
	"name,title",
}

const listLocationsFieldMask = "name,title,phoneNumbers,websiteUri,storefrontAddress"

// ErrEmptyReplyComment is returned before any upstream call when a reply
// comment is blank.
var ErrEmptyReplyComment = errors.New("reply comment must not be empty")

// ReviewServiceConfig groups the fixed cache TTLs for upstream resources.
type ReviewServiceConfig struct {
	// LocationsTTL covers location listings and detail; locations change rarely.
	LocationsTTL time.Duration
	// ReviewsTTL covers review pages; reviews mutate more often.
	ReviewsTTL time.Duration
}

// ReviewService is the typed access layer over the resilient call pipeline.
// Each operation is one executor invocation; cache keys encode every
// parameter that affects the result.
type ReviewService struct {
	api         ports.BusinessProfileAPI
	executor    *upstream.Executor
	cache       ports.TTLCache
	cfg         ReviewServiceConfig
	invalidator ports.CursorInvalidator
	logger      *logrus.Logger
}

func NewReviewService(api ports.BusinessProfileAPI, executor *upstream.Executor, cache ports.TTLCache, cfg *ReviewServiceConfig, logger *logrus.Logger) *ReviewService {
	c := ReviewServiceConfig{
		LocationsTTL: 5 * time.Minute,
		ReviewsTTL:   2 * time.Minute,
	}
	if cfg != nil {
		if cfg.LocationsTTL > 0 {
			c.LocationsTTL = cfg.LocationsTTL
		}
		if cfg.ReviewsTTL > 0 {
			c.ReviewsTTL = cfg.ReviewsTTL
		}
	}
	return &ReviewService{api: api, executor: executor, cache: cache, cfg: c, logger: logger}
}

// SetCursorInvalidator wires the unanswered-review cursor store; called once
// at startup after both services exist.
func (s *ReviewService) SetCursorInvalidator(inv ports.CursorInvalidator) {
	s.invalidator = inv
}

// account resolves (and caches) the first upstream account, the parent under
// which locations are listed.
func (s *ReviewService) account(ctx context.Context) (string, error) {
	account, err := upstream.Do(ctx, s.executor, "listAccounts", "accounts:first", s.cfg.LocationsTTL,
		func(ctx context.Context) (string, error) {
			accounts, err := s.api.ListAccounts(ctx)
			if err != nil {
				return "", err
			}
			if len(accounts) == 0 {
				return "", &gbp.UpstreamError{Kind: gbp.ErrNotFound, Message: "no business profile accounts visible to this credential"}
			}
			return accounts[0].Name, nil
		})
	if err != nil {
		return "", err
	}
	return account, nil
}

// ListLocations implements ports.ReviewService.
func (s *ReviewService) ListLocations(ctx context.Context, pageSize int, pageToken string) (*gbp.LocationPage, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	parent, err := s.account(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("locations:%s:%d:%s", parent, pageSize, pageToken)
	return upstream.Do(ctx, s.executor, "listLocations", key, s.cfg.LocationsTTL,
		func(ctx context.Context) (*gbp.LocationPage, error) {
			return s.api.ListLocations(ctx, parent, pageSize, pageToken, listLocationsFieldMask)
		})
}

// GetLocationDetail implements ports.ReviewService. It walks the ordered
// field-mask candidates; a location is never rejected just because no mask
// yielded an address.
func (s *ReviewService) GetLocationDetail(ctx context.Context, locationName string) (*gbp.Location, error) {
	var lastErr error
	for _, mask := range locationFieldMasks {
		key := fmt.Sprintf("location:%s:%s", locationName, mask)
		loc, err := upstream.Do(ctx, s.executor, "getLocation", key, s.cfg.LocationsTTL,
			func(ctx context.Context) (*gbp.Location, error) {
				return s.api.GetLocation(ctx, locationName, mask)
			})
		if err == nil {
			if loc.Address == nil {
				loc.AddressUnavailable = true
			}
			return loc, nil
		}
		lastErr = err
		if gbp.IsKind(err, gbp.ErrAuthFailed) {
			// a smaller mask will not fix a bad credential
			break
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"location": locationName, "field_mask": mask}).WithError(err).Debug("field mask rejected, trying smaller mask")
		}
	}
	return nil, lastErr
}

// reviewsParent resolves the account-qualified parent the v4 reviews API
// requires ("accounts/<a>/locations/<l>"). The HTTP surface passes bare
// "locations/<l>" names; the account segment is resolved once and cached.
// Cache keys always use the qualified form so reply invalidation matches
// regardless of which form the caller used.
func (s *ReviewService) reviewsParent(ctx context.Context, locationName string) (string, error) {
	if strings.HasPrefix(locationName, "accounts/") {
		return locationName, nil
	}
	account, err := s.account(ctx)
	if err != nil {
		return "", err
	}
	return account + "/" + locationName, nil
}

// ListReviews implements ports.ReviewService and ports.ReviewLister.
func (s *ReviewService) ListReviews(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	parent, err := s.reviewsParent(ctx, locationName)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("reviews:%s:%d:%s", parent, pageSize, pageToken)
	return upstream.Do(ctx, s.executor, "listReviews", key, s.cfg.ReviewsTTL,
		func(ctx context.Context) (*gbp.ReviewPage, error) {
			return s.api.ListReviews(ctx, parent, pageSize, pageToken)
		})
}

// ReplyToReview implements ports.ReviewService. Replies are never cached and
// always hit upstream; a success invalidates the owning location's cached
// review pages and its unanswered-review cursor, since the reply just changed
// the answered/unanswered partition.
func (s *ReviewService) ReplyToReview(ctx context.Context, reviewName, comment string) (*gbp.ReviewReply, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, ErrEmptyReplyComment
	}

	reply, err := upstream.Do(ctx, s.executor, "updateReviewReply", "", 0,
		func(ctx context.Context) (*gbp.ReviewReply, error) {
			return s.api.UpdateReviewReply(ctx, reviewName, comment)
		})
	if err != nil {
		return nil, err
	}

	location := locationOfReview(reviewName)
	if location != "" {
		// review names are normally account-qualified already; qualify anyway
		// so the prefix matches the cache keys ListReviews writes
		if qualified, qerr := s.reviewsParent(ctx, location); qerr == nil {
			location = qualified
		}
		s.cache.DeletePrefix("reviews:" + location + ":")
		if s.invalidator != nil {
			s.invalidator.InvalidateLocation(location)
		}
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"review": reviewName, "location": location}).Info("review reply posted")
	}
	return reply, nil
}

// ClearCache implements ports.ReviewService.
func (s *ReviewService) ClearCache() {
	s.cache.Clear()
	if s.logger != nil {
		s.logger.Info("upstream response cache cleared")
	}
}

// CacheStats exposes the cache snapshot for the admin endpoint.
func (s *ReviewService) CacheStats() ports.CacheStats {
	return s.cache.Stats()
}

// locationOfReview extracts the owning location from a hierarchical review
// resource name ("accounts/a/locations/l/reviews/r").
func locationOfReview(reviewName string) string {
	idx := strings.Index(reviewName, "/reviews/")
	if idx < 0 {
		return ""
	}
	return reviewName[:idx]
}
