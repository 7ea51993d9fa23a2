package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
)

const maxScrolls = 12

// extractPostsJS pulls original posts out of the currently rendered
// list view. Reposts (socialContext) and replies ("Replying to") are
// skipped in the page itself so only original posts cross the wire.
const extractPostsJS = `
(() => {
    const results = [];
    const seen = new Set();
    const articles = document.querySelectorAll("article, div[data-testid='tweet']");
    for (const art of articles) {
        const social = art.querySelector("div[data-testid='socialContext']");
        if (social) {
            const ctx = social.innerText.toLowerCase();
            if (ctx.includes("reposted") || ctx.includes("retweeted")) continue;
        }
        let replying = false;
        for (const span of art.querySelectorAll("span")) {
            if (span.innerText.startsWith("Replying to")) { replying = true; break; }
        }
        if (replying) continue;

        const timeEl = art.querySelector("time");
        if (!timeEl || !timeEl.getAttribute("datetime")) continue;
        const link = timeEl.closest("a");
        const href = link ? link.getAttribute("href") : null;
        const statusLink = href || (art.querySelector("a[href*='/status/']") || {}).getAttribute?.("href");
        if (!statusLink) continue;
        const id = statusLink.split("/").pop().split("?")[0];
        if (!id || seen.has(id)) continue;
        seen.add(id);

        const textEl = art.querySelector("div[data-testid='tweetText']");
        const text = textEl ? textEl.innerText : art.innerText;

        let username = "";
        for (const a of art.querySelectorAll("a[href^='/']")) {
            const h = a.getAttribute("href");
            if (!h || h.includes("/status/")) continue;
            if ((h.match(/\//g) || []).length !== 1) continue;
            const handle = h.replace(/\//g, "");
            if (handle && !["home", "explore", "notifications", "messages"].includes(handle.toLowerCase())) {
                username = "@" + handle;
                break;
            }
        }

        let displayName = "";
        const userBlock = art.querySelector("div[data-testid='User-Name']");
        if (userBlock) {
            const span = userBlock.querySelector("span");
            if (span) displayName = span.innerText.trim();
        }

        results.push({
            id: id,
            text: text.trim(),
            created_at: timeEl.getAttribute("datetime"),
            username: username,
            display_name: displayName,
            has_image: !!art.querySelector("div[data-testid='tweetPhoto']"),
        });
    }
    return results;
})()`

type rawPost struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CreatedAt   string `json:"created_at"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	HasImage    bool   `json:"has_image"`
}

// ListSource scrapes original posts from a list page. It implements
// engine.PostSource.
type ListSource struct {
	session *Session
	logger  *zap.Logger
}

func NewListSource(session *Session, logger *zap.Logger) *ListSource {
	return &ListSource{
		session: session,
		logger:  logger,
	}
}

// FetchCandidates opens the list page and collects up to max unique
// original posts over a bounded number of scroll attempts, in page
// order.
func (s *ListSource) FetchCandidates(ctx context.Context, listID string, max int) ([]models.Post, error) {
	listURL := fmt.Sprintf("https://x.com/i/lists/%s", listID)
	s.logger.Info("Opening list page", zap.String("url", listURL))

	if err := s.session.navigate(ctx, listURL); err != nil {
		return nil, err
	}

	// Give the list content time to render past the shell.
	time.Sleep(5 * time.Second)

	seen := make(map[string]struct{})
	var posts []models.Post

	for scroll := 0; scroll < maxScrolls && len(posts) < max; scroll++ {
		var raw []rawPost
		if err := s.session.run(ctx, chromedp.Evaluate(extractPostsJS, &raw)); err != nil {
			return nil, fmt.Errorf("%w: extracting posts: %v", models.ErrNavigation, err)
		}

		for _, r := range raw {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			post, err := parsePost(r)
			if err != nil {
				s.logger.Debug("Skipping unparseable post",
					zap.String("post_id", r.ID),
					zap.Error(err))
				continue
			}
			seen[r.ID] = struct{}{}
			posts = append(posts, post)
			if len(posts) >= max {
				break
			}
		}

		if len(posts) >= max {
			break
		}

		if err := s.session.run(ctx,
			chromedp.Evaluate(`window.scrollBy(0, window.innerHeight);`, nil),
		); err != nil {
			s.logger.Warn("Scroll failed", zap.Error(err))
			break
		}
		time.Sleep(1200 * time.Millisecond)
	}

	s.logger.Info("Collected original posts from list page",
		zap.Int("count", len(posts)))
	return posts, nil
}

func parsePost(r rawPost) (models.Post, error) {
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.Post{}, fmt.Errorf("invalid timestamp %q: %w", r.CreatedAt, err)
	}
	return models.Post{
		ID:          r.ID,
		Text:        r.Text,
		CreatedAt:   createdAt.UTC(),
		Username:    r.Username,
		DisplayName: r.DisplayName,
		HasImage:    r.HasImage,
	}, nil
}
