// Package news aggregates financial headlines from RSS/Atom feeds.
package news

import (
    "context"
    "html"
    "io"
    "net/http"
    "regexp"
    "sort"
    "strings"
    "time"

    "github.com/mmcdole/gofeed"
    "github.com/sirupsen/logrus"

    "marketboard/internal/httpx"
)

// Item is one normalized headline. PublishedAt is epoch milliseconds UTC.
type Item struct {
    Title       string `json:"title"`
    Source      string `json:"source"`
    PublishedAt int64  `json:"publishedAt"`
    URL         string `json:"url"`
    Summary     string `json:"summary"`
}

// Feed is one upstream RSS or Atom source.
type Feed struct {
    URL    string
    Source string
}

const summaryMaxRunes = 280

// Service fetches and merges all configured feeds.
type Service struct {
    feeds  []Feed
    client *httpx.Client
    parser *gofeed.Parser
    max    int
    log    *logrus.Entry
}

func NewService(feeds []Feed, client *httpx.Client, maxItems int, log *logrus.Entry) *Service {
    if maxItems <= 0 {
        maxItems = 30
    }
    return &Service{
        feeds:  feeds,
        client: client,
        parser: gofeed.NewParser(),
        max:    maxItems,
        log:    log,
    }
}

// Headlines fetches every feed, drops entries without a title or an
// http(s) link, and returns the newest items first, capped at the
// configured maximum. A feed that fails to fetch or parse is skipped;
// the rest still contribute.
func (s *Service) Headlines(ctx context.Context) []Item {
    out := make([]Item, 0, s.max)
    now := time.Now().UnixMilli()

    for _, f := range s.feeds {
        body, err := s.fetchFeed(ctx, f.URL)
        if err != nil {
            if s.log != nil {
                s.log.WithError(err).WithField("feed", f.URL).Warn("feed fetch failed")
            }
            continue
        }
        parsed, err := s.parser.ParseString(body)
        if err != nil {
            if s.log != nil {
                s.log.WithError(err).WithField("feed", f.URL).Warn("feed parse failed")
            }
            continue
        }
        for _, it := range parsed.Items {
            item, ok := normalizeItem(it, f.Source, now)
            if ok {
                out = append(out, item)
            }
        }
    }

    sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt > out[j].PublishedAt })
    if len(out) > s.max {
        out = out[:s.max]
    }
    return out
}

func (s *Service) fetchFeed(ctx context.Context, url string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return "", err
    }
    resp, err := s.client.Do(ctx, req)
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return "", &statusError{code: resp.StatusCode}
    }
    b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
    if err != nil {
        return "", err
    }
    return string(b), nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }

func normalizeItem(it *gofeed.Item, source string, nowMs int64) (Item, bool) {
    title := cleanText(it.Title)
    link := strings.TrimSpace(it.Link)
    if link == "" && strings.HasPrefix(strings.ToLower(it.GUID), "http") {
        // some RSS feeds carry the permalink only in the guid
        link = strings.TrimSpace(it.GUID)
    }
    if title == "" || !isHTTPURL(link) {
        return Item{}, false
    }

    summary := cleanText(it.Description)
    if summary == "" {
        summary = cleanText(it.Content)
    }

    published := nowMs
    switch {
    case it.PublishedParsed != nil:
        published = it.PublishedParsed.UnixMilli()
    case it.UpdatedParsed != nil:
        published = it.UpdatedParsed.UnixMilli()
    }

    return Item{
        Title:       title,
        Source:      source,
        PublishedAt: published,
        URL:         link,
        Summary:     truncateRunes(summary, summaryMaxRunes),
    }, true
}

var (
    tagRe        = regexp.MustCompile(`<[^>]*>`)
    whitespaceRe = regexp.MustCompile(`\s+`)
)

func cleanText(s string) string {
    s = tagRe.ReplaceAllString(s, " ")
    s = html.UnescapeString(s)
    s = whitespaceRe.ReplaceAllString(s, " ")
    return strings.TrimSpace(s)
}

func isHTTPURL(s string) bool {
    l := strings.ToLower(s)
    return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func truncateRunes(s string, max int) string {
    r := []rune(s)
    if len(r) <= max {
        return s
    }
    return string(r[:max])
}
