package engine

import (
	"context"

	"github.com/sipalingnode/yapbot/internal/models"
)

// PostSource fetches candidate posts from the list view. Results are
// deduplicated by ID, in page order, and exclude reposts and posts
// marked as replying to another post. There is no completeness
// guarantee beyond what a bounded number of scroll attempts reveals.
type PostSource interface {
	FetchCandidates(ctx context.Context, listID string, max int) ([]models.Post, error)
}

// Actuator performs the engagement and delivery actions for a single
// post. EnsureEngaged must complete the mandatory like (an already
// liked post passes) before DeliverReply is attempted.
type Actuator interface {
	EnsureEngaged(ctx context.Context, postID string) error
	DeliverReply(ctx context.Context, postID, text string) error
}

// Notifier receives best-effort operational notifications. May be nil.
type Notifier interface {
	Notify(text string)
}
