// internal/capture/session.go
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// linkScript returns the absolute href of every anchor in the document.
// Reading a.href (rather than the attribute) makes the browser resolve
// relative URLs for us.
const linkScript = `(() => {
	const links = [];
	document.querySelectorAll('a[href]').forEach(a => {
		if (a.href) {
			links.push(a.href);
		}
	});
	return links;
})()`

// Session wraps one browser tab and implements schemas.BrowserSession.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	harvester *Harvester

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.BrowserSession = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger, onClose func()) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:      sessionID,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(zap.String("session_id", sessionID)),
		onClose: onClose,
	}
}

// initialize connects the tab and starts the harvester. Must run before any
// navigation so that no request escapes observation.
func (s *Session) initialize(ctx context.Context) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	// Forces target creation and CDP attachment.
	if err := chromedp.Run(runCtx); err != nil {
		return fmt.Errorf("failed to connect browser target: %w", err)
	}

	s.harvester = NewHarvester(s.ctx, s.logger)
	if err := s.harvester.Start(); err != nil {
		return fmt.Errorf("failed to start harvester: %w", err)
	}
	return nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads a URL and blocks until the document body is ready or the
// timeout elapses. The harvester is pointed at the URL first, so requests
// fired during the load are attributed to it.
func (s *Session) Navigate(ctx context.Context, rawURL string, timeout time.Duration) error {
	opCtx, cancelOp := context.WithTimeout(ctx, timeout)
	defer cancelOp()

	runCtx, cancel := combineContext(s.ctx, opCtx)
	defer cancel()

	s.harvester.SetPage(rawURL)

	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	return nil
}

// Links enumerates the anchor targets of the current document.
func (s *Session) Links(ctx context.Context) ([]string, error) {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	var hrefs []string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(linkScript, &hrefs)); err != nil {
		return nil, fmt.Errorf("failed to extract links: %w", err)
	}
	return hrefs, nil
}

// Cookies snapshots every cookie visible to the browsing context, tagged
// with the page that was active when the snapshot was taken.
func (s *Session) Cookies(ctx context.Context, pageURL string) ([]schemas.ObservedCookie, error) {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	var raw []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]schemas.ObservedCookie, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		observed := schemas.ObservedCookie{
			Name:     c.Name,
			Domain:   c.Domain,
			Path:     c.Path,
			Value:    c.Value,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
			PageURL:  pageURL,
		}
		// Expires is seconds since epoch; non-positive means session cookie.
		if c.Expires > 0 {
			t := time.Unix(int64(c.Expires), 0).UTC()
			observed.ExpiresAt = &t
		}
		cookies = append(cookies, observed)
	}
	return cookies, nil
}

// CompletedRequests drains the harvester. Safe to call once per session;
// subsequent calls return whatever remains (normally the same set).
func (s *Session) CompletedRequests() []schemas.ObservedRequest {
	drainCtx, cancel := context.WithTimeout(detach(s.ctx), 20*time.Second)
	defer cancel()
	return s.harvester.Drain(drainCtx)
}

// Close tears down the tab. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing session.")

	// Cancelling the tab context closes the target.
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}
