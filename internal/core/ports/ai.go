package ports

import (
	"context"

	"github.com/reviewdeck/reviewdeck/internal/core/domain/gbp"
)

// ReplyComposer drafts a suggested owner reply for a review. Drafts are
// returned to the caller for editing; nothing is ever posted upstream here.
type ReplyComposer interface {
	ComposeReply(ctx context.Context, review *gbp.Review, businessName, tone string) (string, error)
}
