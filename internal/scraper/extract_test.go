package scraper

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	doc.Url, _ = url.Parse("https://example.com/events/")
	return doc
}

func testConfig() SourceConfig {
	return SourceConfig{Name: "test_source", Type: "art", MaxEvents: 5}
}

func TestExtractEventsFromEventCards(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<div class="event-card">
				<h3>Gallery Opening</h3>
				<p>New works on display.</p>
				<time datetime="2026-09-12T19:00:00Z">Sep 12</time>
				<span class="location">Brooklyn Museum</span>
				<a href="/events/gallery-opening">Details</a>
			</div>
			<div class="sidebar">
				<h3>Not An Event</h3>
			</div>
			<article class="calendar-item">
				<h2>Jazz Night</h2>
			</article>
		</body></html>`)

	got := ExtractEvents(doc, testConfig())
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "Gallery Opening", first.Title)
	assert.Equal(t, "New works on display.", first.Description)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC), first.Date.UTC())
	assert.Equal(t, "Brooklyn Museum", first.Location)
	assert.Equal(t, "https://example.com/events/gallery-opening", first.URL)
	assert.Equal(t, "test_source", first.Source)
	assert.NotEmpty(t, first.SourceID)

	second := got[1]
	assert.Equal(t, "Jazz Night", second.Title)
	assert.Nil(t, second.Date)
	assert.Equal(t, "Brooklyn, NY", second.Location)
}

func TestExtractEventsCapsCandidates(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		b.WriteString(`<div class="event"><h3>Event `)
		b.WriteString(string(rune('A' + i)))
		b.WriteString(`</h3></div>`)
	}
	b.WriteString("</body></html>")

	got := ExtractEvents(docFromHTML(t, b.String()), testConfig())
	assert.Len(t, got, 5)
}

func TestExtractEventsSkipsTitlelessCandidates(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<div class="event-listing"><img src="poster.jpg"></div>
			<div class="event-listing"><h3>Real Event</h3></div>
		</body></html>`)

	got := ExtractEvents(doc, testConfig())
	require.Len(t, got, 1)
	assert.Equal(t, "Real Event", got[0].Title)
}

func TestExtractEventsDeduplicatesNestedContainers(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<div class="events-wrapper">
				<h3>Concert</h3>
				<li class="event-item"><h3>Concert</h3></li>
			</div>
		</body></html>`)

	got := ExtractEvents(doc, testConfig())
	assert.Len(t, got, 1)
}

func TestExtractEventsSanitizesMarkup(t *testing.T) {
	doc := docFromHTML(t, `
		<html><body>
			<div class="event">
				<h3>Movie <script>alert(1)</script>Night</h3>
				<p>Bring <b>snacks</b><script>evil()</script></p>
			</div>
		</body></html>`)

	got := ExtractEvents(doc, testConfig())
	require.Len(t, got, 1)
	assert.NotContains(t, got[0].Title, "script")
	assert.NotContains(t, got[0].Description, "script")
	assert.Contains(t, got[0].Description, "snacks")
}

func TestExtractEventsStableSourceIDs(t *testing.T) {
	html := `<html><body><div class="event"><h3>Jazz Night</h3>
		<time datetime="2026-09-12T19:00:00Z">Sep 12</time></div></body></html>`

	first := ExtractEvents(docFromHTML(t, html), testConfig())
	second := ExtractEvents(docFromHTML(t, html), testConfig())
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].SourceID, second[0].SourceID)
}

func TestExtractMatchesContainersByID(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<div id="events-grid"><h3>Puppet Show</h3></div>
		<div id="sidebar"><h3>Not An Event</h3></div>
	</body></html>`)

	got := ExtractEvents(doc, testConfig())
	require.Len(t, got, 1)
	assert.Equal(t, "Puppet Show", got[0].Title)
}
