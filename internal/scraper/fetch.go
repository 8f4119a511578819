package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// defaultUserAgent identifies the aggregator to the sites it scrapes.
const defaultUserAgent = "BrooklynEventsAggregator/1.0 (+https://github.com/brooklyn-events/aggregator)"

// defaultDomainDelay is the minimum gap between requests to the same domain.
const defaultDomainDelay = time.Second

// fetchResultKey routes the collector callbacks back to the FetchDocument
// call that issued the request.
const fetchResultKey = "fetchResult"

type fetchResult struct {
	body []byte
	err  error
}

// Fetcher performs plain HTTP fetches of server-rendered pages through a
// shared Colly collector, which enforces robots.txt for us. Requests to the
// same domain are serialized and spaced by domainDelay.
type Fetcher struct {
	collector   *colly.Collector
	domainDelay time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	limited map[string]bool
}

// NewFetcher returns a Fetcher with the standard User-Agent and the given
// request timeout.
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		// Scheduled runs revisit the same listing pages every interval.
		colly.AllowURLRevisit(),
		// robots.txt is respected by default in Colly; do NOT use IgnoreRobotsTxt.
	)
	c.SetRequestTimeout(timeout)

	c.OnResponse(func(r *colly.Response) {
		if res, ok := r.Ctx.GetAny(fetchResultKey).(*fetchResult); ok {
			res.body = r.Body
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if res, ok := r.Ctx.GetAny(fetchResultKey).(*fetchResult); ok {
			res.err = err
		}
	})

	return &Fetcher{
		collector:   c,
		domainDelay: defaultDomainDelay,
		logger:      logger,
		limited:     map[string]bool{},
	}
}

// FetchDocument fetches pageURL and parses the response body into a goquery
// document.
func (f *Fetcher) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	domain, err := extractDomain(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if err := f.ensureLimit(domain); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	result := &fetchResult{}
	cctx := colly.NewContext()
	cctx.Put(fetchResultKey, result)

	if err := f.collector.Request("GET", pageURL, nil, cctx, nil); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	f.collector.Wait()

	if result.err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, result.err)
	}
	if len(result.body) == 0 {
		return nil, fmt.Errorf("fetch %s: empty response", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}

// ensureLimit registers a one-request-at-a-time limit rule for the domain on
// first contact.
func (f *Fetcher) ensureLimit(domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.limited[domain] {
		return nil
	}
	if err := f.collector.Limit(&colly.LimitRule{
		DomainGlob:  domain,
		Parallelism: 1,
		Delay:       f.domainDelay,
	}); err != nil {
		return err
	}
	f.limited[domain] = true
	return nil
}

// extractDomain parses rawURL and returns just the hostname (no port).
func extractDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}
