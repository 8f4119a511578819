package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// Renderer fetches pages that require script execution before their content
// exists in the DOM. One Renderer is shared by every rendered adapter and the
// orchestrator calls them concurrently; the single browser process behind it
// is guarded by mu. Each RenderDocument call owns its page exclusively and
// closes it on every exit path.
type Renderer struct {
	userAgent         string
	navigationTimeout time.Duration
	settleDelay       time.Duration
	logger            zerolog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	launch  func() (*rod.Browser, error)
}

// NewRenderer returns a Renderer with the given navigation timeout. The
// browser process is launched lazily on first use.
func NewRenderer(navigationTimeout time.Duration, logger zerolog.Logger) *Renderer {
	if navigationTimeout <= 0 {
		navigationTimeout = 30 * time.Second
	}
	return &Renderer{
		userAgent:         defaultUserAgent,
		navigationTimeout: navigationTimeout,
		settleDelay:       2 * time.Second,
		logger:            logger,
		launch:            launchBrowser,
	}
}

// RenderDocument navigates to pageURL in a stealth page, waits for waitFor to
// appear (or a short settle delay when no marker is configured), and parses
// the rendered DOM. The marker wait is best-effort: a page that never shows
// the marker is still snapshotted after the timeout.
func (r *Renderer) RenderDocument(ctx context.Context, pageURL, waitFor string) (*goquery.Document, error) {
	allowed, err := r.robotsAllowed(ctx, pageURL)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", pageURL).Msg("scraper: robots.txt check failed, proceeding")
	} else if !allowed {
		return nil, fmt.Errorf("render %s: disallowed by robots.txt", pageURL)
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("render %s: create page: %w", pageURL, err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, r.navigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("render %s: navigate: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		r.logger.Warn().Err(err).Str("url", pageURL).Msg("scraper: wait load timeout")
	}

	findMarker := func(waitCtx context.Context, sel string) error {
		_, err := page.Context(waitCtx).Element(sel)
		return err
	}
	if err := r.awaitContent(ctx, pageURL, waitFor, findMarker); err != nil {
		return nil, err
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("render %s: read DOM: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("render %s: parse DOM: %w", pageURL, err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}

// awaitContent blocks until the marker lookup returns, the settle delay
// elapses, or ctx is cancelled. The marker wait is best-effort: a marker that
// never appears is logged and tolerated so the page still gets snapshotted.
func (r *Renderer) awaitContent(ctx context.Context, pageURL, waitFor string, findMarker func(context.Context, string) error) error {
	if waitFor != "" {
		waitCtx, cancel := context.WithTimeout(ctx, r.navigationTimeout)
		defer cancel()
		if err := findMarker(waitCtx, waitFor); err != nil {
			r.logger.Warn().Err(err).Str("url", pageURL).Str("marker", waitFor).
				Msg("scraper: marker never appeared, snapshotting anyway")
		}
		return nil
	}

	select {
	case <-time.After(r.settleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the browser process if one was launched.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("scraper: browser close failed")
		}
		r.browser = nil
	}
}

// ensureBrowser returns the shared browser, launching it on first use. The
// lock keeps concurrent adapters from racing the launch and leaking extra
// browser processes.
func (r *Renderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	browser, err := r.launch()
	if err != nil {
		return nil, err
	}
	r.browser = browser
	return browser, nil
}

func launchBrowser() (*rod.Browser, error) {
	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return browser, nil
}

// robotsAllowed checks the target's robots.txt. Colly does this for plain
// fetches; the browser path has to do it by hand.
func (r *Renderer) robotsAllowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, err
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return false, err
	}

	return data.FindGroup(r.userAgent).Test(u.Path), nil
}
