package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSession scripts the browser layer so engine behavior can be tested
// without Chrome.
type fakeSession struct {
	links       []string
	linksErr    error
	cookies     map[string][]schemas.ObservedCookie
	requests    []schemas.ObservedRequest
	failNav     map[string]error
	navigations []string
	closed      bool
	drained     bool
}

func (f *fakeSession) Navigate(_ context.Context, rawURL string, _ time.Duration) error {
	if err, ok := f.failNav[rawURL]; ok {
		return err
	}
	f.navigations = append(f.navigations, rawURL)
	return nil
}

func (f *fakeSession) Links(context.Context) ([]string, error) {
	return f.links, f.linksErr
}

func (f *fakeSession) Cookies(_ context.Context, pageURL string) ([]schemas.ObservedCookie, error) {
	return f.cookies[pageURL], nil
}

func (f *fakeSession) CompletedRequests() []schemas.ObservedRequest {
	f.drained = true
	return f.requests
}

func (f *fakeSession) Close(context.Context) error {
	f.closed = true
	return nil
}

type fakeFactory struct {
	session    *fakeSession
	sessionErr error
}

func (f *fakeFactory) NewSession(context.Context) (schemas.BrowserSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeFactory) Shutdown(context.Context) error { return nil }

func testCaptureConfig() config.CaptureConfig {
	return config.CaptureConfig{
		NavigationTimeout: time.Second,
		SettleWait:        0, // keep tests fast
		MaxLinks:          5,
		VisitInterval:     time.Nanosecond,
	}
}

func TestRun_SeedUnreachableAbortsAndClosesSession(t *testing.T) {
	session := &fakeSession{
		failNav: map[string]error{"https://dead.example.com": errors.New("net::ERR_NAME_NOT_RESOLVED")},
	}
	engine := NewEngine(&fakeFactory{session: session}, testCaptureConfig(), zap.NewNop())

	result, err := engine.Run(context.Background(), "https://dead.example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeedUnreachable)
	assert.Nil(t, result)
	assert.True(t, session.closed, "session must be torn down even when the seed fails")
}

func TestRun_LinkFailureIsSkippedNotFatal(t *testing.T) {
	session := &fakeSession{
		links: []string{
			"https://site.example.com/about",
			"https://site.example.com/broken",
			"https://site.example.com/contact",
		},
		failNav: map[string]error{"https://site.example.com/broken": errors.New("timeout")},
	}
	engine := NewEngine(&fakeFactory{session: session}, testCaptureConfig(), zap.NewNop())

	result, err := engine.Run(context.Background(), "https://site.example.com")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://site.example.com",
		"https://site.example.com/about",
		"https://site.example.com/contact",
	}, result.VisitedPages)
	assert.True(t, session.closed)
}

func TestRun_RespectsMaxLinksAndFiltersSchemes(t *testing.T) {
	session := &fakeSession{
		links: []string{
			"mailto:owner@site.example.com",
			"javascript:void(0)",
			"https://site.example.com/a",
			"https://site.example.com/a", // duplicate
			"https://site.example.com",   // the seed itself
			"http://site.example.com/b",
			"https://site.example.com/c",
			"https://site.example.com/d",
		},
	}
	cfg := testCaptureConfig()
	cfg.MaxLinks = 3
	engine := NewEngine(&fakeFactory{session: session}, cfg, zap.NewNop())

	result, err := engine.Run(context.Background(), "https://site.example.com")

	require.NoError(t, err)
	// Seed plus the first three acceptable links, in document order.
	assert.Equal(t, []string{
		"https://site.example.com",
		"https://site.example.com/a",
		"http://site.example.com/b",
		"https://site.example.com/c",
	}, result.VisitedPages)
}

func TestRun_LinksErrorScansSeedOnly(t *testing.T) {
	session := &fakeSession{
		linksErr: errors.New("evaluate failed"),
		requests: []schemas.ObservedRequest{{URL: "https://collector.example.net/beacon", Method: "POST"}},
	}
	engine := NewEngine(&fakeFactory{session: session}, testCaptureConfig(), zap.NewNop())

	result, err := engine.Run(context.Background(), "https://site.example.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://site.example.com"}, result.VisitedPages)
	assert.Len(t, result.Requests, 1)
	assert.True(t, session.drained)
}

func TestRun_CookiesDeduplicatedAcrossPages(t *testing.T) {
	sharedCookie := schemas.ObservedCookie{Name: "sid", Domain: "site.example.com", Path: "/"}
	session := &fakeSession{
		links: []string{"https://site.example.com/about"},
		cookies: map[string][]schemas.ObservedCookie{
			"https://site.example.com": {
				withPage(sharedCookie, "https://site.example.com"),
			},
			"https://site.example.com/about": {
				withPage(sharedCookie, "https://site.example.com/about"),
				{Name: "pref", Domain: "site.example.com", Path: "/", PageURL: "https://site.example.com/about"},
			},
		},
	}
	engine := NewEngine(&fakeFactory{session: session}, testCaptureConfig(), zap.NewNop())

	result, err := engine.Run(context.Background(), "https://site.example.com")

	require.NoError(t, err)
	require.Len(t, result.Cookies, 2)
	// First sighting wins, so sid reports the seed page.
	assert.Equal(t, "sid", result.Cookies[0].Name)
	assert.Equal(t, "https://site.example.com", result.Cookies[0].PageURL)
	assert.Equal(t, "pref", result.Cookies[1].Name)
}

func TestRun_FactoryErrorPropagates(t *testing.T) {
	engine := NewEngine(&fakeFactory{sessionErr: errors.New("browser failed to start")}, testCaptureConfig(), zap.NewNop())

	_, err := engine.Run(context.Background(), "https://site.example.com")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSeedUnreachable)
}

func TestSelectTargets(t *testing.T) {
	links := []string{
		"ftp://files.example.com/pub",
		"https://a.example.com",
		"https://a.example.com",
		"https://b.example.com",
	}

	assert.Equal(t,
		[]string{"https://a.example.com", "https://b.example.com"},
		selectTargets(links, "https://seed.example.com", 10))
	assert.Nil(t, selectTargets(links, "https://seed.example.com", 0))
	assert.Len(t, selectTargets(links, "https://seed.example.com", 1), 1)
}

func withPage(c schemas.ObservedCookie, page string) schemas.ObservedCookie {
	c.PageURL = page
	return c
}
