package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/classifier"
	"github.com/sipalingnode/yapbot/internal/models"
	"github.com/sipalingnode/yapbot/internal/reply"
)

// Options are the pacing and limit knobs for the orchestrator.
type Options struct {
	ListID            string
	MaxResults        int
	PollInterval      time.Duration
	MinPostAge        time.Duration
	MaxPostAge        time.Duration
	DelayAfterReply   time.Duration
	JitterMax         time.Duration
	PauseAfter        int
	StopAfter         int
	PauseDuration     time.Duration
	GenerationBackoff time.Duration
}

// Engine drives the poll cycles: fetch candidates, partition them,
// process the ready list, then re-evaluate the waiting list with fresh
// timestamps. Everything runs on a single logical actor; one post is
// fully handled (classify, compose, engage, deliver, persist) before
// the next begins because the browser layer operates one tab at a
// time.
type Engine struct {
	opts     Options
	source   PostSource
	actuator Actuator
	selector *reply.Selector
	ledger   *Ledger
	filter   Filter
	notifier Notifier
	logger   *zap.Logger

	// Injected for tests.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

func New(opts Options, source PostSource, actuator Actuator, selector *reply.Selector, ledger *Ledger, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		opts:     opts,
		source:   source,
		actuator: actuator,
		selector: selector,
		ledger:   ledger,
		filter: Filter{
			MinAge: opts.MinPostAge,
			MaxAge: opts.MaxPostAge,
			Logger: logger,
		},
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
		jitter: func() time.Duration {
			if opts.JitterMax <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(opts.JitterMax)))
		},
	}
}

// Run loops cycles until the context is cancelled. Cycle-level errors
// are logged and the loop proceeds to the next poll interval; nothing
// is fatal here.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				e.logger.Warn("Stopped by cancellation")
				return ctx.Err()
			}
			e.logger.Error("Cycle failed", zap.Error(err))
		}
		e.logger.Info("Sleeping until next poll",
			zap.Duration("interval", e.opts.PollInterval))
		if err := e.sleep(ctx, e.opts.PollInterval); err != nil {
			return err
		}
	}
}

// RunCycle performs one fetch-filter-process pass.
func (e *Engine) RunCycle(ctx context.Context) error {
	logger := e.logger.With(zap.String("cycle", uuid.NewString()[:8]))

	e.ledger.ResetIfNewDay(e.now().Format(dateLayout))

	posts, err := e.source.FetchCandidates(ctx, e.opts.ListID, e.opts.MaxResults)
	if err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}
	if len(posts) == 0 {
		logger.Info("No posts found this cycle")
		return nil
	}

	ready, waiting := e.filter.Partition(posts, e.now(), e.ledger)
	if len(ready) == 0 && len(waiting) == 0 {
		logger.Info("No candidates after filtering",
			zap.Int("fetched", len(posts)))
		return nil
	}

	// One reply per author per cycle, independent of the durable
	// cooldown just written.
	cycleAuthors := make(map[string]struct{})

	if len(ready) > 0 {
		logger.Info("Processing ready posts", zap.Int("count", len(ready)))
		if err := e.processList(ctx, logger, ready, false, cycleAuthors); err != nil {
			return err
		}
	}

	// Waiting posts are re-evaluated with fresh timestamps: enough real
	// time may have passed during ready processing for them to become
	// eligible within this same cycle.
	if len(waiting) > 0 {
		logger.Info("Re-evaluating waiting posts", zap.Int("count", len(waiting)))
		if err := e.processList(ctx, logger, waiting, true, cycleAuthors); err != nil {
			return err
		}
	}

	logger.Info("Finished processing candidates",
		zap.Int("count_today", e.ledger.Count()))
	return nil
}

// processList handles one eligibility list in fetch order. The only
// errors it returns are cancellations; per-post failures are isolated
// and never abort the batch.
func (e *Engine) processList(ctx context.Context, logger *zap.Logger, posts []models.Post, reevaluate bool, cycleAuthors map[string]struct{}) error {
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.ledger.Count() >= e.opts.StopAfter {
			logger.Warn("Daily stop limit reached, sleeping until next day",
				zap.Int("stop_after", e.opts.StopAfter))
			e.notify(fmt.Sprintf("Daily limit of %d replies reached, stopping until tomorrow.", e.opts.StopAfter))
			return e.sleepUntilNextDay(ctx)
		}

		if e.ledger.HasReplied(post.ID) {
			continue
		}

		now := e.now()
		if reevaluate {
			switch decision := e.filter.Evaluate(post, now, e.ledger); decision {
			case DecisionReady:
			case DecisionWaiting:
				logger.Info("Still too fresh after processing others, skipping until next cycle",
					zap.String("post_id", post.ID),
					zap.Duration("age", now.Sub(post.CreatedAt)))
				continue
			default:
				logger.Debug("Waiting post no longer eligible",
					zap.String("post_id", post.ID),
					zap.String("reason", decision.String()))
				continue
			}
		}

		authorKey := post.AuthorKey()
		if e.ledger.IsAuthorCoolingDown(authorKey, now) {
			logger.Info("Skipping post, author cooling down",
				zap.String("post_id", post.ID),
				zap.String("author", authorKey),
				zap.Duration("remaining", e.ledger.CooldownRemaining(authorKey, now)))
			continue
		}
		if _, done := cycleAuthors[authorKey]; done {
			logger.Info("Already replied to author this cycle",
				zap.String("post_id", post.ID),
				zap.String("author", authorKey))
			continue
		}

		classification := classifier.Classify(post.Text)
		text, err := e.selector.Compose(ctx, post, classification)
		if err != nil {
			logger.Warn("Reply generation failed, backing off",
				zap.Error(err),
				zap.String("post_id", post.ID),
				zap.Duration("backoff", e.opts.GenerationBackoff))
			if err := e.sleep(ctx, e.opts.GenerationBackoff); err != nil {
				return err
			}
			continue
		}

		if err := e.actuator.EnsureEngaged(ctx, post.ID); err != nil {
			logger.Warn("Skipping reply, engagement failed",
				zap.Error(err),
				zap.String("post_id", post.ID))
			continue
		}
		if err := e.actuator.DeliverReply(ctx, post.ID, text); err != nil {
			logger.Error("Reply delivery failed",
				zap.Error(err),
				zap.String("post_id", post.ID))
			continue
		}

		e.ledger.RecordReply(post.ID, authorKey, e.now())
		cycleAuthors[authorKey] = struct{}{}

		count := e.ledger.Count()
		logger.Info("Replied to post",
			zap.String("post_id", post.ID),
			zap.String("author", authorKey),
			zap.String("mode", classification.Mode.String()),
			zap.Int("count_today", count))
		e.notify(fmt.Sprintf("Replied to %s (%s), %d today.", post.ID, classification.Mode, count))

		if count == e.opts.PauseAfter {
			logger.Warn("Pause threshold reached, pausing",
				zap.Int("pause_after", e.opts.PauseAfter),
				zap.Duration("pause", e.opts.PauseDuration))
			if err := e.sleep(ctx, e.opts.PauseDuration); err != nil {
				return err
			}
		}

		delay := e.opts.DelayAfterReply + e.jitter()
		logger.Info("Sleeping after reply", zap.Duration("delay", delay))
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// sleepUntilNextDay blocks until local midnight, then resets the daily
// counter.
func (e *Engine) sleepUntilNextDay(ctx context.Context) error {
	now := e.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if err := e.sleep(ctx, midnight.Sub(now)); err != nil {
		return err
	}
	e.ledger.ResetIfNewDay(e.now().Format(dateLayout))
	return nil
}

func (e *Engine) notify(text string) {
	if e.notifier != nil {
		e.notifier.Notify(text)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
