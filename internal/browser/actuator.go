package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
)

const (
	likeWaitAttempts = 8
	likeWaitInterval = 700 * time.Millisecond
	composerWait     = 25 * time.Second
)

var likeSelectors = []string{
	"div[data-testid='like']",
	"button[aria-label*='Like']",
	"div[role='button'][aria-label*='Like']",
}

var replySelectors = []string{
	"div[data-testid='reply']",
	"div[aria-label='Reply']",
}

var composerSelectors = []string{
	"div[data-testid='tweetTextarea_0']",
	"div[aria-label='Tweet text']",
	"div[contenteditable='true'][role='textbox']",
	"div[role='textbox']",
}

// ReplyActuator performs the like-then-reply action sequence on a
// post's status page. It implements engine.Actuator.
type ReplyActuator struct {
	session *Session
	logger  *zap.Logger
}

func NewReplyActuator(session *Session, logger *zap.Logger) *ReplyActuator {
	return &ReplyActuator{
		session: session,
		logger:  logger,
	}
}

// EnsureEngaged navigates to the post and performs the mandatory like.
// An already-liked post passes immediately; otherwise the like button
// is polled a bounded number of times before giving up.
func (a *ReplyActuator) EnsureEngaged(ctx context.Context, postID string) error {
	if err := a.session.navigate(ctx, statusURL(postID)); err != nil {
		return err
	}
	time.Sleep(1500 * time.Millisecond)

	var alreadyLiked bool
	check := `document.querySelector("div[data-testid='unlike']") !== null`
	if err := a.session.run(ctx, chromedp.Evaluate(check, &alreadyLiked)); err == nil && alreadyLiked {
		a.logger.Info("Post already liked", zap.String("post_id", postID))
		return nil
	}

	for attempt := 1; attempt <= likeWaitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, sel := range likeSelectors {
			if a.clickFirstVisible(ctx, sel) {
				a.logger.Info("Post liked",
					zap.String("post_id", postID),
					zap.String("selector", sel))
				time.Sleep(500 * time.Millisecond)
				return nil
			}
		}
		a.logger.Debug("Like button not visible yet",
			zap.String("post_id", postID),
			zap.Int("attempt", attempt))
		time.Sleep(likeWaitInterval)
	}

	return fmt.Errorf("%w: like button not found for %s", models.ErrEngagement, postID)
}

// DeliverReply opens the reply composer on the post already engaged by
// EnsureEngaged, types the text and sends it.
func (a *ReplyActuator) DeliverReply(ctx context.Context, postID, text string) error {
	opened := false
	for _, sel := range replySelectors {
		if a.clickFirstVisible(ctx, sel) {
			opened = true
			break
		}
	}
	if !opened {
		// Keyboard shortcut fallback: focus the post and press "r".
		err := a.session.run(ctx,
			chromedp.Click("article", chromedp.ByQuery),
			chromedp.KeyEvent("r"),
		)
		if err != nil {
			return fmt.Errorf("%w: reply button not found for %s", models.ErrDelivery, postID)
		}
	}

	composer, err := a.waitForComposer(ctx)
	if err != nil {
		return fmt.Errorf("%w: composer not found for %s", models.ErrDelivery, postID)
	}

	err = a.session.run(ctx,
		chromedp.Click(composer, chromedp.ByQuery),
		chromedp.SendKeys(composer, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: typing reply for %s: %v", models.ErrDelivery, postID, err)
	}
	time.Sleep(600 * time.Millisecond)

	if err := a.session.run(ctx, chromedp.Click("div[data-testid='tweetButton']", chromedp.ByQuery)); err != nil {
		// Direct DOM click as a fallback when the button is obscured.
		var clicked bool
		jsClick := `(() => {
			const b = document.querySelector("div[data-testid='tweetButton'], button[data-testid='tweetButton']");
			if (b) b.click();
			return !!b;
		})()`
		if kerr := a.session.run(ctx, chromedp.Evaluate(jsClick, &clicked)); kerr != nil || !clicked {
			return fmt.Errorf("%w: sending reply for %s: %v", models.ErrDelivery, postID, err)
		}
	}

	time.Sleep(2500 * time.Millisecond)
	a.logger.Info("Reply sent", zap.String("post_id", postID))
	return nil
}

// clickFirstVisible clicks the first visible match for the selector;
// false when nothing visible matched within a short window.
func (a *ReplyActuator) clickFirstVisible(ctx context.Context, sel string) bool {
	if ctx.Err() != nil {
		return false
	}
	clickCtx, cancel := context.WithTimeout(a.session.ctx, 5*time.Second)
	defer cancel()
	err := chromedp.Run(clickCtx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
	)
	return err == nil
}

// waitForComposer polls the known composer selectors until one is
// visible or the wait budget is spent.
func (a *ReplyActuator) waitForComposer(ctx context.Context) (string, error) {
	deadline := time.Now().Add(composerWait)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, sel := range composerSelectors {
			var visible bool
			check := fmt.Sprintf(
				`(() => { const el = document.querySelector(%q); return el !== null && el.offsetParent !== null; })()`, sel)
			if err := a.session.run(ctx, chromedp.Evaluate(check, &visible)); err == nil && visible {
				return sel, nil
			}
		}
		time.Sleep(time.Second)
	}
	return "", fmt.Errorf("composer not visible after %s", composerWait)
}

func statusURL(postID string) string {
	return fmt.Sprintf("https://x.com/i/web/status/%s", postID)
}
