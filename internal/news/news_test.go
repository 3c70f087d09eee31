package news

import (
    "fmt"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "marketboard/internal/httpx"
)

const rssXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Biz</title>
  <item>
    <title>Markets &amp; rates climb</title>
    <link>https://example.com/a</link>
    <description><![CDATA[<p>Some  <b>bold</b> text.</p>]]></description>
    <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>No link entry</title>
    <description>dropped</description>
  </item>
  <item>
    <title>Guid permalink only</title>
    <guid isPermaLink="true">https://example.com/b</guid>
    <pubDate>Mon, 06 Jan 2025 12:00:00 GMT</pubDate>
  </item>
</channel></rss>`

const atomXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Econ</title>
  <entry>
    <title>Atom headline</title>
    <link rel="alternate" href="https://example.com/c"/>
    <summary>atom summary</summary>
    <updated>2025-01-06T14:00:00Z</updated>
  </entry>
</feed>`

func newTestService(t *testing.T, feeds []Feed) *Service {
    t.Helper()
    return NewService(feeds, httpx.New(5*time.Second), 30, nil)
}

func TestHeadlines_MergesRSSAndAtom(t *testing.T) {
    rss := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        io.WriteString(w, rssXML)
    }))
    defer rss.Close()
    atom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        io.WriteString(w, atomXML)
    }))
    defer atom.Close()

    s := newTestService(t, []Feed{{URL: rss.URL, Source: "Biz"}, {URL: atom.URL, Source: "Econ"}})
    items := s.Headlines(testContext(t))

    if len(items) != 3 {
        t.Fatalf("len = %d: %+v", len(items), items)
    }
    // newest first
    if items[0].Title != "Atom headline" || items[0].Source != "Econ" {
        t.Errorf("order wrong: %+v", items)
    }
    if items[1].URL != "https://example.com/b" {
        t.Errorf("guid permalink not used: %+v", items[1])
    }
    last := items[2]
    if last.Title != "Markets & rates climb" {
        t.Errorf("entities not decoded: %q", last.Title)
    }
    if last.Summary != "Some bold text." {
        t.Errorf("summary not cleaned: %q", last.Summary)
    }
}

func TestHeadlines_BrokenFeedSkipped(t *testing.T) {
    bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "boom", http.StatusInternalServerError)
    }))
    defer bad.Close()
    good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        io.WriteString(w, atomXML)
    }))
    defer good.Close()

    s := newTestService(t, []Feed{{URL: bad.URL, Source: "Bad"}, {URL: good.URL, Source: "Econ"}})
    items := s.Headlines(testContext(t))
    if len(items) != 1 || items[0].Source != "Econ" {
        t.Fatalf("items = %+v", items)
    }
}

func TestHeadlines_CapAndSummaryTruncation(t *testing.T) {
    long := strings.Repeat("ñ", 400)
    var b strings.Builder
    b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>x</title>`)
    for i := 0; i < 40; i++ {
        fmt.Fprintf(&b, `<item><title>t%d</title><link>https://example.com/%d</link><description>%s</description><pubDate>Mon, 06 Jan 2025 %02d:00:00 GMT</pubDate></item>`, i, i, long, i%24)
    }
    b.WriteString(`</channel></rss>`)

    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        io.WriteString(w, b.String())
    }))
    defer srv.Close()

    s := newTestService(t, []Feed{{URL: srv.URL, Source: "x"}})
    items := s.Headlines(testContext(t))
    if len(items) != 30 {
        t.Fatalf("cap broken: %d", len(items))
    }
    if n := len([]rune(items[0].Summary)); n != 280 {
        t.Errorf("summary runes = %d, want 280", n)
    }
}
