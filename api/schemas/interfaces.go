package schemas

import (
	"context"
	"time"
)

// BrowserSession is the narrow capability surface the capture engine needs
// from the browser automation layer. Keeping it this small lets the pipeline
// run against a fake session in tests without a real browser.
type BrowserSession interface {
	// Navigate loads a URL in the session's browsing context and blocks
	// until the document has loaded or the timeout elapses.
	Navigate(ctx context.Context, rawURL string, timeout time.Duration) error

	// Links enumerates the hyperlink targets of the current document as
	// absolute URLs.
	Links(ctx context.Context) ([]string, error)

	// Cookies snapshots the cookies currently visible to the browsing
	// context, tagged with the given page URL.
	Cookies(ctx context.Context, pageURL string) ([]ObservedCookie, error)

	// CompletedRequests drains the POST request/response pairs observed so
	// far. Requests whose response was never seen are not returned.
	CompletedRequests() []ObservedRequest

	// Close tears down the browsing context. It must be safe to call even
	// after a failed navigation.
	Close(ctx context.Context) error
}

// SessionFactory creates browsing sessions. The production implementation is
// backed by a shared headless browser process.
type SessionFactory interface {
	NewSession(ctx context.Context) (BrowserSession, error)
	Shutdown(ctx context.Context) error
}
