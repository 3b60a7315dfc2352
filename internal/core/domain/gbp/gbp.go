package gbp

import "time"

// Account is an upstream Business Profile account, the parent resource under
// which locations live.
type Account struct {
	Name        string `json:"name"`
	AccountName string `json:"account_name"`
	Type        string `json:"type,omitempty"`
}

// Location is a read-only projection of an upstream Business Profile location.
// Name is the upstream resource name (e.g. "locations/123") and is the only identity.
type Location struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	PrimaryPhone string   `json:"primary_phone,omitempty"`
	WebsiteURI   string   `json:"website_uri,omitempty"`
	Address      *Address `json:"address,omitempty"`
	// AddressUnavailable is set when no field-mask variant yielded an address.
	// The location itself is still valid.
	AddressUnavailable bool `json:"address_unavailable,omitempty"`
}

// Address is the subset of the upstream postal address we surface.
type Address struct {
	AddressLines []string `json:"address_lines,omitempty"`
	Locality     string   `json:"locality,omitempty"`
	Region       string   `json:"region,omitempty"`
	PostalCode   string   `json:"postal_code,omitempty"`
	RegionCode   string   `json:"region_code,omitempty"`
}

// StarRating is the upstream enum for review ratings.
type StarRating string

const (
	StarRatingUnspecified StarRating = "STAR_RATING_UNSPECIFIED"
	StarRatingOne         StarRating = "ONE"
	StarRatingTwo         StarRating = "TWO"
	StarRatingThree       StarRating = "THREE"
	StarRatingFour        StarRating = "FOUR"
	StarRatingFive        StarRating = "FIVE"
)

// Value returns the numeric rating, 0 if unspecified.
func (r StarRating) Value() int {
	switch r {
	case StarRatingOne:
		return 1
	case StarRatingTwo:
		return 2
	case StarRatingThree:
		return 3
	case StarRatingFour:
		return 4
	case StarRatingFive:
		return 5
	}
	return 0
}

// Reviewer identifies the author of a review as reported upstream.
type Reviewer struct {
	DisplayName     string `json:"display_name"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
	IsAnonymous     bool   `json:"is_anonymous,omitempty"`
}

// ReviewReply is the owner's reply to a review. A nil reply on a Review is the
// sole signal that the review is unanswered.
type ReviewReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"update_time"`
}

// Review is a read-only projection of an upstream review. Name is the
// hierarchical upstream resource name and is never invented locally.
type Review struct {
	Name       string       `json:"name"`
	Reviewer   Reviewer     `json:"reviewer"`
	StarRating StarRating   `json:"star_rating"`
	Comment    string       `json:"comment,omitempty"`
	CreateTime time.Time    `json:"create_time"`
	UpdateTime time.Time    `json:"update_time"`
	Reply      *ReviewReply `json:"reply,omitempty"`
}

// Answered reports whether the review already has an owner reply.
func (r *Review) Answered() bool { return r.Reply != nil }

// LocationPage is one page of locations as listed upstream.
type LocationPage struct {
	Locations     []*Location `json:"locations"`
	NextPageToken string      `json:"next_page_token,omitempty"`
	TotalSize     int         `json:"total_size"`
}

// ReviewPage is one page of reviews as listed upstream, with the aggregate
// stats the upstream reports alongside.
type ReviewPage struct {
	Reviews          []*Review `json:"reviews"`
	NextPageToken    string    `json:"next_page_token,omitempty"`
	AverageRating    float64   `json:"average_rating"`
	TotalReviewCount int       `json:"total_review_count"`
}

// UnansweredPage is a fixed-size page of unanswered reviews assembled by the
// paginator from one or more upstream pages.
type UnansweredPage struct {
	Reviews []*Review `json:"reviews"`
	// HasMore reports whether another page may exist for the same cursor.
	HasMore bool `json:"has_more"`
	// ScannedUpstream is the total number of upstream reviews inspected by the
	// cursor so far, answered ones included.
	ScannedUpstream int `json:"scanned_upstream"`
}
