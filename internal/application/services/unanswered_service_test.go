package services_test

import (
	"context"
	"fmt"
	"testing"

	impl "github.com/reviewdeck/reviewdeck/internal/application/services"
	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

// fakeUpstream serves reviews in fixed pages regardless of the requested
// batch size, like the real API is free to do.
type fakeUpstream struct {
	pages      [][]*gbp.Review
	listCalls  int
	failOnCall int // 1-based; 0 disables
}

func (f *fakeUpstream) ListReviews(ctx context.Context, locationName string, pageSize int, pageToken string) (*gbp.ReviewPage, error) {
	f.listCalls++
	if f.failOnCall > 0 && f.listCalls >= f.failOnCall {
		return nil, &gbp.UpstreamError{Kind: gbp.ErrRateLimited, HTTPStatus: 429, Message: "quota"}
	}
	idx := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "t%d", &idx)
	}
	if idx >= len(f.pages) {
		return &gbp.ReviewPage{}, nil
	}
	page := &gbp.ReviewPage{Reviews: f.pages[idx]}
	if idx+1 < len(f.pages) {
		page.NextPageToken = fmt.Sprintf("t%d", idx+1)
	}
	return page, nil
}

func review(name string, answered bool) *gbp.Review {
	r := &gbp.Review{Name: "accounts/a/locations/l/reviews/" + name, StarRating: gbp.StarRatingFour}
	if answered {
		r.Reply = &gbp.ReviewReply{Comment: "thanks"}
	}
	return r
}

func TestUnansweredPagesNeverDuplicate(t *testing.T) {
	// 7 unanswered and 3 answered spread across upstream pages of size 4
	upstream := &fakeUpstream{pages: [][]*gbp.Review{
		{review("r1", true), review("r2", false), review("r3", false), review("r4", false)},
		{review("r5", false), review("r6", true), review("r7", false), review("r8", false)},
		{review("r9", true), review("r10", false)},
	}}
	svc := impl.NewUnansweredReviewService(upstream, nil, nil)

	seen := map[string]bool{}
	var sizes []int
	for i := 0; i < 3; i++ {
		page, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 3)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		sizes = append(sizes, len(page.Reviews))
		for _, r := range page.Reviews {
			if r.Answered() {
				t.Fatalf("answered review %s must never be served", r.Name)
			}
			if seen[r.Name] {
				t.Fatalf("review %s served twice", r.Name)
			}
			seen[r.Name] = true
		}
	}
	if sizes[0] != 3 || sizes[1] != 3 || sizes[2] != 1 {
		t.Fatalf("expected page sizes 3,3,1; got %v", sizes)
	}
	if len(seen) != 7 {
		t.Fatalf("expected all 7 unanswered reviews served, got %d", len(seen))
	}
}

func TestUnansweredAccumulatesAcrossUpstreamPages(t *testing.T) {
	// upstream: [R1(answered),R2,R3,R4] then [R5,R6(answered),R7]
	upstream := &fakeUpstream{pages: [][]*gbp.Review{
		{review("r1", true), review("r2", false), review("r3", false), review("r4", false)},
		{review("r5", false), review("r6", true), review("r7", false)},
	}}
	svc := impl.NewUnansweredReviewService(upstream, nil, nil)

	page, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"r2", "r3", "r4", "r5", "r7"}
	if len(page.Reviews) != len(want) {
		t.Fatalf("expected %d reviews, got %d", len(want), len(page.Reviews))
	}
	for i, name := range want {
		if page.Reviews[i].Name != "accounts/a/locations/l/reviews/"+name {
			t.Fatalf("position %d: got %s, want %s (upstream order must be preserved)", i, page.Reviews[i].Name, name)
		}
	}
	if page.HasMore {
		t.Fatalf("cursor is exhausted, expected no further pages")
	}

	next, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next.Reviews) != 0 || next.HasMore {
		t.Fatalf("expected empty page with no-more-pages, got %d reviews, hasMore=%v", len(next.Reviews), next.HasMore)
	}
}

func TestUnansweredInvalidationRescansFromStart(t *testing.T) {
	upstream := &fakeUpstream{pages: [][]*gbp.Review{
		{review("r1", false), review("r2", false)},
	}}
	svc := impl.NewUnansweredReviewService(upstream, nil, nil)

	if _, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsBefore := upstream.listCalls

	svc.InvalidateLocation("accounts/a/locations/l")

	page, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.listCalls <= callsBefore {
		t.Fatalf("invalidated cursor must re-fetch upstream")
	}
	if len(page.Reviews) != 2 {
		t.Fatalf("expected full re-scan to serve 2 reviews, got %d", len(page.Reviews))
	}
}

func TestUnansweredCursorSharedAcrossNameForms(t *testing.T) {
	upstream := &fakeUpstream{pages: [][]*gbp.Review{
		{review("r1", false), review("r2", false)},
	}}
	svc := impl.NewUnansweredReviewService(upstream, nil, nil)

	// cursor built via the bare name the HTTP surface uses
	if _, err := svc.ListUnanswered(context.Background(), "locations/l", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsBefore := upstream.listCalls

	// reply invalidation arrives with the account-qualified review-name form
	svc.InvalidateLocation("accounts/a/locations/l")

	if _, err := svc.ListUnanswered(context.Background(), "locations/l", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.listCalls <= callsBefore {
		t.Fatalf("qualified-name invalidation must drop the bare-name cursor")
	}
}

func TestUnansweredUpstreamFailureIsFatal(t *testing.T) {
	upstream := &fakeUpstream{
		pages: [][]*gbp.Review{
			{review("r1", false)},
			{review("r2", false)},
		},
		failOnCall: 2,
	}
	svc := impl.NewUnansweredReviewService(upstream, nil, nil)

	// page size 2 needs both upstream pages; the second fetch fails
	_, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 2)
	if err == nil {
		t.Fatalf("partial accumulation must not be served as a complete page")
	}
	if !gbp.IsKind(err, gbp.ErrRateLimited) {
		t.Fatalf("upstream error must propagate unchanged, got %v", err)
	}
}

func TestUnansweredScanCeilingBoundsAllAnsweredLocations(t *testing.T) {
	var pages [][]*gbp.Review
	for p := 0; p < 50; p++ {
		var batch []*gbp.Review
		for i := 0; i < 10; i++ {
			batch = append(batch, review(fmt.Sprintf("r%d-%d", p, i), true))
		}
		pages = append(pages, batch)
	}
	upstream := &fakeUpstream{pages: pages}
	svc := impl.NewUnansweredReviewService(upstream, &impl.UnansweredConfig{ScanCeiling: 30}, nil)

	page, err := svc.ListUnanswered(context.Background(), "accounts/a/locations/l", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Reviews) != 0 {
		t.Fatalf("all reviews answered, expected empty page")
	}
	if !page.HasMore {
		t.Fatalf("scan stopped at the ceiling, more upstream data may exist")
	}
	if upstream.listCalls > 4 {
		t.Fatalf("ceiling of 30 items should stop after ~3 pages of 10, got %d calls", upstream.listCalls)
	}
}
