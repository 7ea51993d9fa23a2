package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sipalingnode/yapbot/internal/models"
)

const navAttempts = 2

// Session owns a single headless Chrome with one tab. All page actions
// of the bot run through it sequentially; interleaved actions would
// corrupt page state.
type Session struct {
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	ctx         context.Context
	navTimeout  time.Duration
	logger      *zap.Logger
}

// Cookie mirrors the browser cookie export format used by the login
// helper (one JSON array in the cookie file).
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

func NewSession(cookieFile string, headless bool, navTimeout time.Duration, logger *zap.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
	)
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		logger.Info("Using custom chrome path", zap.String("path", chromePath))
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, tabCancel := chromedp.NewContext(allocCtx)

	// Force Chrome startup before anything else touches the tab.
	if err := chromedp.Run(ctx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	s := &Session{
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
		ctx:         ctx,
		navTimeout:  navTimeout,
		logger:      logger,
	}

	if err := s.loadCookies(cookieFile); err != nil {
		// Headed mode allows a manual login instead of injected cookies.
		if headless {
			s.Close()
			return nil, err
		}
		logger.Warn("Proceeding without cookies, log in manually", zap.Error(err))
	}

	return s, nil
}

// loadCookies injects the exported login cookies into the browser.
// Without them the list page renders a login wall.
func (s *Session) loadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cookie file %s: %w", path, err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("failed to parse cookie file %s: %w", path, err)
	}

	err = chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			setter := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				setter = setter.WithExpires(&expires)
			}
			if err := setter.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}

	s.logger.Info("Loaded cookies into browser session", zap.Int("count", len(cookies)))
	return nil
}

// navigate loads a URL with bounded retries and a fallback to a plain
// readiness wait; exhausted attempts map to models.ErrNavigation.
func (s *Session) navigate(ctx context.Context, url string) error {
	for attempt := 1; attempt <= navAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		navCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
		err := chromedp.Run(navCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}
		s.logger.Warn("Navigation attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return fmt.Errorf("%w: %s", models.ErrNavigation, url)
}

// run executes chromedp actions on the session tab under the
// navigation timeout.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
	s.logger.Info("Browser session closed")
}
