package services

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

// cursor accumulates a location's unanswered reviews across upstream pages.
// The answered/unanswered partition happens once, at ingestion: buffer only
// ever grows until the cursor is invalidated.
type cursor struct {
	buffer    []*gbp.Review
	nextToken string
	exhausted bool
	served    int
	totalSeen int
}

// UnansweredConfig bounds a single request's upstream scanning. The values
// are tuning knobs, not load-bearing behavior.
type UnansweredConfig struct {
	// OverFetchCap limits the upstream batch size (requests over-fetch 2x the
	// page size to cut round trips).
	OverFetchCap int
	// ScanCeiling caps upstream items inspected per request chain, guarding
	// against all-answered locations causing unbounded scans.
	ScanCeiling int
}

// UnansweredReviewService serves fixed-size pages of unanswered reviews even
// though the upstream only paginates over all reviews. Cursors are per
// location and mutated under a per-key lock so concurrent requests for the
// same location cannot double-advance or duplicate-fetch.
type UnansweredReviewService struct {
	reviews ports.ReviewLister
	cfg     UnansweredConfig
	logger  *logrus.Logger

	mu      sync.Mutex
	cursors map[string]*cursor
	locks   map[string]*sync.Mutex
}

func NewUnansweredReviewService(reviews ports.ReviewLister, cfg *UnansweredConfig, logger *logrus.Logger) *UnansweredReviewService {
	c := UnansweredConfig{OverFetchCap: 50, ScanCeiling: 200}
	if cfg != nil {
		if cfg.OverFetchCap > 0 {
			c.OverFetchCap = cfg.OverFetchCap
		}
		if cfg.ScanCeiling > 0 {
			c.ScanCeiling = cfg.ScanCeiling
		}
	}
	return &UnansweredReviewService{
		reviews: reviews,
		cfg:     c,
		logger:  logger,
		cursors: make(map[string]*cursor),
		locks:   make(map[string]*sync.Mutex),
	}
}

// cursorKey normalizes a location name to its bare "locations/<l>" tail so
// account-qualified and unqualified callers share one cursor. Reply
// invalidation passes the qualified form; the HTTP surface passes the bare one.
func cursorKey(locationName string) string {
	if idx := strings.Index(locationName, "locations/"); idx > 0 {
		return locationName[idx:]
	}
	return locationName
}

// lockFor returns the mutex serializing cursor mutation for a location.
func (s *UnansweredReviewService) lockFor(locationName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[locationName]
	if !ok {
		l = &sync.Mutex{}
		s.locks[locationName] = l
	}
	return l
}

func (s *UnansweredReviewService) cursorFor(locationName string) *cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cursors[locationName]
	if !ok {
		cur = &cursor{}
		s.cursors[locationName] = cur
	}
	return cur
}

// ListUnanswered implements ports.UnansweredReviewService.
func (s *UnansweredReviewService) ListUnanswered(ctx context.Context, locationName string, pageSize int) (*gbp.UnansweredPage, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	key := cursorKey(locationName)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	cur := s.cursorFor(key)

	scanned := 0
	for len(cur.buffer) < cur.served+pageSize && !cur.exhausted {
		if scanned >= s.cfg.ScanCeiling {
			// stop scanning and serve whatever accumulated
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"location": locationName, "scanned": scanned}).Warn("unanswered scan ceiling reached")
			}
			break
		}

		fetch := pageSize * 2
		if fetch > s.cfg.OverFetchCap {
			fetch = s.cfg.OverFetchCap
		}

		page, err := s.reviews.ListReviews(ctx, locationName, fetch, cur.nextToken)
		if err != nil {
			// fatal to this request; never pass off a partial page as complete
			return nil, err
		}

		for _, r := range page.Reviews {
			cur.totalSeen++
			scanned++
			if !r.Answered() {
				cur.buffer = append(cur.buffer, r)
			}
		}
		cur.nextToken = page.NextPageToken
		cur.exhausted = page.NextPageToken == ""

		if len(page.Reviews) == 0 {
			break
		}
	}

	end := cur.served + pageSize
	if end > len(cur.buffer) {
		end = len(cur.buffer)
	}
	items := make([]*gbp.Review, end-cur.served)
	copy(items, cur.buffer[cur.served:end])
	cur.served = end

	return &gbp.UnansweredPage{
		Reviews:         items,
		HasMore:         cur.served < len(cur.buffer) || !cur.exhausted,
		ScannedUpstream: cur.totalSeen,
	}, nil
}

// InvalidateLocation implements ports.UnansweredReviewService and
// ports.CursorInvalidator. The next request re-scans from the first upstream
// page.
func (s *UnansweredReviewService) InvalidateLocation(locationName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, cursorKey(locationName))
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"location": locationName}).Debug("unanswered cursor invalidated")
	}
}
