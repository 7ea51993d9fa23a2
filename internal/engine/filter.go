package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
)

// hardAgeCap is the absolute staleness cutoff. It is enforced
// independently of the configurable max-age window; both checks always
// run even if the window is configured above 24h.
const hardAgeCap = 24 * time.Hour

// Decision is the eligibility outcome for a single post at a given
// instant. It is recomputed from wall-clock time on every evaluation
// and never cached across cycles.
type Decision int

const (
	DecisionReady Decision = iota
	DecisionWaiting
	DecisionExcludedDuplicate
	DecisionExcludedStale
	DecisionExcludedWindow
)

func (d Decision) String() string {
	switch d {
	case DecisionReady:
		return "ready"
	case DecisionWaiting:
		return "waiting"
	case DecisionExcludedDuplicate:
		return "excluded_duplicate"
	case DecisionExcludedStale:
		return "excluded_stale"
	case DecisionExcludedWindow:
		return "excluded_window"
	default:
		return "unknown"
	}
}

// RepliedSet answers whether a post has already received a reply.
type RepliedSet interface {
	HasReplied(id string) bool
}

// Filter decides which posts may receive a reply right now. It holds
// no mutable state; identical inputs always yield identical decisions.
type Filter struct {
	MinAge time.Duration
	MaxAge time.Duration
	Logger *zap.Logger
}

// Evaluate applies the eligibility rules in order: already replied,
// older than the 24h cap, older than the configured freshness window,
// younger than the minimum age (waiting), else ready.
func (f Filter) Evaluate(post models.Post, now time.Time, replied RepliedSet) Decision {
	if replied.HasReplied(post.ID) {
		return DecisionExcludedDuplicate
	}
	age := now.Sub(post.CreatedAt)
	if age > hardAgeCap {
		return DecisionExcludedStale
	}
	if post.CreatedAt.Before(now.Add(-f.MaxAge)) {
		return DecisionExcludedWindow
	}
	if age < f.MinAge {
		return DecisionWaiting
	}
	return DecisionReady
}

// Partition splits a candidate batch into ready and waiting lists,
// preserving fetch order. Excluded posts are dropped with a debug log.
func (f Filter) Partition(posts []models.Post, now time.Time, replied RepliedSet) (ready, waiting []models.Post) {
	for _, post := range posts {
		decision := f.Evaluate(post, now, replied)
		switch decision {
		case DecisionReady:
			ready = append(ready, post)
		case DecisionWaiting:
			if f.Logger != nil {
				f.Logger.Info("Post too fresh, will re-evaluate after ready replies",
					zap.String("post_id", post.ID),
					zap.Duration("age", now.Sub(post.CreatedAt)),
					zap.Duration("min_age", f.MinAge))
			}
			waiting = append(waiting, post)
		default:
			if f.Logger != nil {
				f.Logger.Debug("Post excluded",
					zap.String("post_id", post.ID),
					zap.String("reason", decision.String()))
			}
		}
	}
	return ready, waiting
}
