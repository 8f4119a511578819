package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-dateparser"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
	"github.com/brooklyn-events/aggregator/internal/sanitize"
)

// containerKeywords are the class or id fragments that mark a node as a
// likely event card. Heuristic by necessity: these pages share no markup
// contract.
var containerKeywords = []string{"event", "calendar", "listing"}

// defaultLocation is assumed when a card carries no location text.
const defaultLocation = "Brooklyn, NY"

// ExtractEvents walks the document for event-shaped containers and returns at
// most cfg.MaxEvents normalized events. Candidates without a resolvable title
// are dropped. Extraction never fails: an unrecognizable page yields nil.
func ExtractEvents(doc *goquery.Document, cfg SourceConfig) []events.Event {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 5
	}

	var (
		result     []events.Event
		seenTitles = map[string]bool{}
	)

	doc.Find("div, article, li, section").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if !keywordMatch(class) && !keywordMatch(id) {
			return true
		}

		title := extractTitle(s)
		if title == "" {
			return true
		}

		// Nested containers repeat the same card; keep the first occurrence.
		key := strings.ToLower(title)
		if seenTitles[key] {
			return true
		}
		seenTitles[key] = true

		event := events.Event{
			Title:       title,
			Description: extractDescription(s),
			Date:        extractDate(s),
			Location:    extractLocation(s),
			Type:        cfg.Type,
			URL:         extractURL(s, doc),
			Source:      cfg.Name,
		}
		event.SourceID = events.SynthesizeSourceID(event.Title, event.Date)

		result = append(result, event)
		return len(result) < maxEvents
	})

	return result
}

func keywordMatch(attr string) bool {
	lower := strings.ToLower(attr)
	for _, kw := range containerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractTitle takes the first heading inside the card, falling back to a
// title-classed node, then the first link text.
func extractTitle(s *goquery.Selection) string {
	for _, sel := range []string{"h1", "h2", "h3", "h4", "[class*=title]", "a"} {
		text := sanitize.Text(s.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func extractDescription(s *goquery.Selection) string {
	text := s.Find("p").First().Text()
	if text == "" {
		text = s.Find("[class*=description], [class*=summary]").First().Text()
	}
	return sanitize.Description(strings.TrimSpace(text))
}

// extractDate reads the card's time element (datetime attribute preferred,
// text fallback) or any date-classed node, then parses it leniently. Returns
// nil when no parseable date is present.
func extractDate(s *goquery.Selection) *time.Time {
	var candidates []string

	timeEl := s.Find("time").First()
	if dt, ok := timeEl.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		candidates = append(candidates, strings.TrimSpace(dt))
	}
	if text := sanitize.Text(timeEl.Text()); text != "" {
		candidates = append(candidates, text)
	}
	if text := sanitize.Text(s.Find("[class*=date]").First().Text()); text != "" {
		candidates = append(candidates, text)
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         time.Now(),
		PreferredDateSource: dateparser.Future,
	}
	for _, candidate := range candidates {
		parsed, err := dateparser.Parse(cfg, candidate)
		if err == nil && !parsed.Time.IsZero() {
			t := parsed.Time
			return &t
		}
	}
	return nil
}

func extractLocation(s *goquery.Selection) string {
	text := sanitize.Text(s.Find("[class*=location], [class*=venue], [class*=address]").First().Text())
	if text == "" {
		return defaultLocation
	}
	return text
}

// extractURL resolves the card's first link against the document URL.
func extractURL(s *goquery.Selection, doc *goquery.Document) string {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	href = strings.TrimSpace(href)

	if doc.Url == nil {
		return href
	}
	ref, err := doc.Url.Parse(href)
	if err != nil {
		return href
	}
	return ref.String()
}
