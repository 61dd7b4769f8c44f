// internal/capture/manager.go
package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/config"
)

// Manager owns the headless browser process and hands out tabs as sessions.
// It implements schemas.SessionFactory.
type Manager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
	isClosed bool
}

var _ schemas.SessionFactory = (*Manager)(nil)

// NewManager prepares a browser allocator from the config. The browser
// process itself starts lazily with the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(&cfg.Browser)...)

	return &Manager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		logger:      logger.Named("browser"),
		sessions:    make(map[string]*Session),
	}
}

// execOptions translates the browser config into chromedp allocator options.
func execOptions(cfg *config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems where the sandbox cannot start.
		chromedp.NoSandbox,
		// Recommended for stability in containers and headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}

	for _, arg := range cfg.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}

	return opts
}

// NewSession opens a new tab and attaches a harvester to it before any
// navigation can happen.
func (m *Manager) NewSession(ctx context.Context) (schemas.BrowserSession, error) {
	m.mu.Lock()
	if m.isClosed {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager is shut down")
	}
	m.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	session := newSession(tabCtx, tabCancel, m.logger, nil)

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	if err := session.initialize(ctx); err != nil {
		// Cleanup must not depend on the possibly-dead caller context.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Debug("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown closes all sessions and the browser process. Blocks until the
// sessions are gone or the context expires.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.isClosed {
		m.mu.Unlock()
		return nil
	}
	m.isClosed = true
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.Unlock()

	m.logger.Debug("Shutting down browser manager.", zap.Int("open_sessions", len(sessionsToClose)))

	for _, s := range sessionsToClose {
		go func(s *Session) {
			_ = s.Close(ctx)
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timed out waiting for sessions to close: %w", ctx.Err())
	}

	m.allocCancel()
	return err
}
