// internal/capture/engine.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/config"
)

// ErrSeedUnreachable marks a scan that failed before observing anything: the
// seed page itself could not be loaded. Link-level failures never produce
// this error.
var ErrSeedUnreachable = errors.New("seed page unreachable")

// Engine runs a bounded crawl: load the seed page, then visit up to MaxLinks
// of its same-document links, snapshotting cookies after each settle window.
// All pages share one browsing context so cookies and requests accumulate the
// way they would for a real visitor.
type Engine struct {
	factory schemas.SessionFactory
	cfg     config.CaptureConfig
	logger  *zap.Logger
	limiter *rate.Limiter
}

func NewEngine(factory schemas.SessionFactory, cfg config.CaptureConfig, logger *zap.Logger) *Engine {
	interval := cfg.VisitInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		factory: factory,
		cfg:     cfg,
		logger:  logger.Named("capture"),
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Run performs one scan session against the seed URL. The seed failing to
// load aborts the scan with ErrSeedUnreachable; an individual link failing is
// logged and skipped. The session is torn down in every path.
func (e *Engine) Run(ctx context.Context, seedURL string) (*schemas.CaptureResult, error) {
	startedAt := time.Now().UTC()

	session, err := e.factory.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if cerr := session.Close(closeCtx); cerr != nil {
			e.logger.Warn("Failed to close browser session.", zap.Error(cerr))
		}
	}()

	e.logger.Info("Starting capture.", zap.String("seed_url", seedURL))

	if err := session.Navigate(ctx, seedURL, e.cfg.NavigationTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSeedUnreachable, seedURL, err)
	}
	if err := e.settle(ctx); err != nil {
		return nil, err
	}

	result := &schemas.CaptureResult{
		SeedURL:      seedURL,
		VisitedPages: []string{seedURL},
		StartedAt:    startedAt,
	}

	seen := newCookieSet()
	if err := e.snapshotCookies(ctx, session, seedURL, seen, result); err != nil {
		return nil, err
	}

	links, err := session.Links(ctx)
	if err != nil {
		// A page without extractable links is still a valid scan of the seed.
		e.logger.Warn("Failed to enumerate links, scanning seed only.", zap.Error(err))
	}

	for _, link := range selectTargets(links, seedURL, e.cfg.MaxLinks) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if err := session.Navigate(ctx, link, e.cfg.NavigationTimeout); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("Skipping unreachable link.", zap.String("url", link), zap.Error(err))
			continue
		}
		if err := e.settle(ctx); err != nil {
			return nil, err
		}

		result.VisitedPages = append(result.VisitedPages, link)
		if err := e.snapshotCookies(ctx, session, link, seen, result); err != nil {
			return nil, err
		}
	}

	result.Requests = session.CompletedRequests()

	e.logger.Info("Capture complete.",
		zap.Int("pages_visited", len(result.VisitedPages)),
		zap.Int("cookies", len(result.Cookies)),
		zap.Int("post_requests", len(result.Requests)))

	return result, nil
}

// settle gives deferred scripts a fixed window to set cookies and fire
// beacons before we snapshot.
func (e *Engine) settle(ctx context.Context) error {
	if e.cfg.SettleWait <= 0 {
		return nil
	}
	timer := time.NewTimer(e.cfg.SettleWait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) snapshotCookies(ctx context.Context, session schemas.BrowserSession, pageURL string, seen cookieSet, result *schemas.CaptureResult) error {
	cookies, err := session.Cookies(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Warn("Failed to snapshot cookies.", zap.String("page_url", pageURL), zap.Error(err))
		return nil
	}

	for _, c := range cookies {
		// Snapshots overlap across pages; the first sighting wins so the
		// reported page is where the cookie first appeared.
		if seen.add(c) {
			result.Cookies = append(result.Cookies, c)
		}
	}
	return nil
}

// selectTargets filters raw hrefs down to the visit list: http(s) only,
// deduplicated, the seed excluded, capped at maxLinks. Order is preserved
// from the document.
func selectTargets(links []string, seedURL string, maxLinks int) []string {
	if maxLinks <= 0 {
		return nil
	}

	visited := map[string]bool{seedURL: true}
	var targets []string
	for _, link := range links {
		if len(targets) >= maxLinks {
			break
		}
		if visited[link] {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		visited[link] = true
		targets = append(targets, link)
	}
	return targets
}

// cookieSet deduplicates cookies across page snapshots by identity, not
// value: a cookie rewritten mid-crawl is still one cookie.
type cookieSet map[string]bool

func newCookieSet() cookieSet {
	return make(cookieSet)
}

func (s cookieSet) add(c schemas.ObservedCookie) bool {
	key := c.Name + "\x00" + c.Domain + "\x00" + c.Path
	if s[key] {
		return false
	}
	s[key] = true
	return true
}
