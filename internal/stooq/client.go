// Package stooq is the client for the Stooq CSV endpoints: single-line
// quote responses and multi-line daily history, fetched over an ordered
// list of mirror URLs with two transport strategies per URL.
package stooq

import (
    "context"
    "io"
    "net/http"
    "net/url"
    "strings"
    "sync"
    "time"

    "github.com/sirupsen/logrus"
    "golang.org/x/sync/singleflight"

    "marketboard/internal/market"
    "marketboard/internal/market/ratelimit"
    "marketboard/internal/symbol"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=stooq_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
    Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

const (
    maxBodyBytes = 8 << 20
    snippetLen   = 80
)

// Config controls the Stooq client behavior.
type Config struct {
    // BaseURLs are tried in order. Defaults to the stooq.com/stooq.pl
    // https+http pairs.
    BaseURLs []string
    // QuoteTimeout bounds a whole quote fetch including all fallbacks.
    QuoteTimeout time.Duration
    // HistoryTimeout bounds a whole history fetch including all fallbacks.
    HistoryTimeout time.Duration
    // HistoryCacheTTL caches the full parsed series per provider symbol.
    // Zero disables the cache.
    HistoryCacheTTL time.Duration
}

// Client fetches and parses Stooq data. Safe for concurrent use.
type Client struct {
    cfg      Config
    primary  HTTPClient
    fallback HTTPClient
    gate     ratelimit.Gate
    log      *logrus.Entry

    // coalesce concurrent history fetches per provider symbol
    sf     singleflight.Group
    histMu sync.RWMutex
    hist   map[string]histEntry
}

type histEntry struct {
    points []market.HistoryPoint
    until  time.Time
}

func New(cfg Config, primary, fallback HTTPClient, gate ratelimit.Gate, log *logrus.Entry) *Client {
    if len(cfg.BaseURLs) == 0 {
        cfg.BaseURLs = []string{
            "https://stooq.com",
            "http://stooq.com",
            "https://stooq.pl",
            "http://stooq.pl",
        }
    }
    if cfg.QuoteTimeout <= 0 {
        cfg.QuoteTimeout = 10 * time.Second
    }
    if cfg.HistoryTimeout <= 0 {
        cfg.HistoryTimeout = 12 * time.Second
    }
    return &Client{
        cfg:      cfg,
        primary:  primary,
        fallback: fallback,
        gate:     gate,
        log:      log,
        hist:     make(map[string]histEntry),
    }
}

// Quote fetches the latest daily quote for a single user ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (market.Quote, []market.Attempt, error) {
    sym, ok := symbol.Map(ticker)
    if !ok {
        return market.Quote{}, nil, market.ErrUnsupported
    }

    ctx, cancel := context.WithTimeout(ctx, c.cfg.QuoteTimeout)
    defer cancel()

    body, attempts, err := c.fetch(ctx, quoteURLs(c.cfg.BaseURLs, sym))
    if err != nil {
        return market.Quote{}, attempts, err
    }

    back := map[string]string{sym: strings.ToUpper(strings.TrimSpace(ticker))}
    q, ok := ParseQuote(body, back)
    if !ok {
        // e.g. "N/D" close for symbols the provider lists but has no data for
        return market.Quote{}, attempts, market.ErrNoData
    }
    return q, attempts, nil
}

// History fetches the daily close series for a ticker truncated to r.
// Concurrent requests for the same provider symbol are coalesced, and the
// full parsed series is cached for HistoryCacheTTL; truncation is applied
// per request after the cache.
func (c *Client) History(ctx context.Context, ticker string, r market.Range) ([]market.HistoryPoint, []market.Attempt, error) {
    sym, ok := symbol.Map(ticker)
    if !ok {
        return nil, nil, market.ErrUnsupported
    }

    if pts, ok := c.cachedHistory(sym); ok {
        return r.Truncate(pts), nil, nil
    }

    type result struct {
        points   []market.HistoryPoint
        attempts []market.Attempt
    }
    v, err, _ := c.sf.Do(sym, func() (any, error) {
        fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.HistoryTimeout)
        defer cancel()

        body, attempts, err := c.fetch(fetchCtx, historyURLs(c.cfg.BaseURLs, sym))
        if err != nil {
            return result{attempts: attempts}, err
        }
        points := ParseHistory(body)
        c.storeHistory(sym, points)
        return result{points: points, attempts: attempts}, nil
    })
    res, _ := v.(result)
    if err != nil {
        return nil, res.attempts, err
    }
    return r.Truncate(res.points), res.attempts, nil
}

func (c *Client) cachedHistory(sym string) ([]market.HistoryPoint, bool) {
    if c.cfg.HistoryCacheTTL <= 0 {
        return nil, false
    }
    c.histMu.RLock()
    defer c.histMu.RUnlock()
    e, ok := c.hist[sym]
    if !ok || time.Now().After(e.until) {
        return nil, false
    }
    return e.points, true
}

func (c *Client) storeHistory(sym string, points []market.HistoryPoint) {
    if c.cfg.HistoryCacheTTL <= 0 {
        return
    }
    c.histMu.Lock()
    c.hist[sym] = histEntry{points: points, until: time.Now().Add(c.cfg.HistoryCacheTTL)}
    c.histMu.Unlock()
}

// fetch walks the URL list in order, trying the primary and then the
// fallback transport against each, and returns the first non-empty 200
// body. Every attempt is recorded for the optional debug surface.
func (c *Client) fetch(ctx context.Context, urls []string) (string, []market.Attempt, error) {
    attempts := make([]market.Attempt, 0, len(urls)*2)
    transports := []struct {
        name   string
        client HTTPClient
    }{
        {"primary", c.primary},
        {"fallback", c.fallback},
    }

    for _, u := range urls {
        for _, tr := range transports {
            if tr.client == nil {
                continue
            }
            if err := ctx.Err(); err != nil {
                return "", attempts, err
            }
            if c.gate != nil {
                if err := c.gate.Wait(ctx); err != nil {
                    return "", attempts, err
                }
            }

            body, status, err := c.get(ctx, tr.client, u)
            att := market.Attempt{URL: u, Transport: tr.name, Status: status}
            switch {
            case err != nil:
                att.Err = err.Error()
            case status != http.StatusOK:
                att.Err = "unexpected status"
            case strings.TrimSpace(body) == "":
                att.Err = "empty body"
            default:
                att.OK = true
            }
            if body != "" {
                att.Snippet = snippet(body)
            }
            attempts = append(attempts, att)

            if att.OK {
                return body, attempts, nil
            }
            if c.log != nil {
                c.log.WithFields(logrus.Fields{"url": u, "transport": tr.name, "status": status}).
                    Debug("stooq attempt failed")
            }
        }
    }
    return "", attempts, market.ErrNoData
}

func (c *Client) get(ctx context.Context, hc HTTPClient, rawURL string) (string, int, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
    if err != nil {
        return "", 0, err
    }
    resp, err := hc.Do(ctx, req)
    if err != nil {
        return "", 0, err
    }
    defer resp.Body.Close()
    b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
    if err != nil {
        return "", resp.StatusCode, err
    }
    return string(b), resp.StatusCode, nil
}

// quoteURLs builds the single-quote CSV endpoints.
// f=sd2t2ohlcvn selects Symbol,Date,Time,Open,High,Low,Close,Volume,Name.
func quoteURLs(bases []string, sym string) []string {
    q := url.Values{"s": {sym}, "f": {"sd2t2ohlcvn"}, "h": {""}, "e": {"csv"}}
    enc := q.Encode()
    out := make([]string, 0, len(bases))
    for _, b := range bases {
        out = append(out, strings.TrimRight(b, "/")+"/q/l/?"+enc)
    }
    return out
}

// historyURLs builds the daily-interval history CSV endpoints.
func historyURLs(bases []string, sym string) []string {
    q := url.Values{"s": {sym}, "i": {"d"}}
    enc := q.Encode()
    out := make([]string, 0, len(bases))
    for _, b := range bases {
        out = append(out, strings.TrimRight(b, "/")+"/q/d/l/?"+enc)
    }
    return out
}

func snippet(body string) string {
    if len(body) > snippetLen {
        body = body[:snippetLen]
    }
    return strings.ToValidUTF8(body, "")
}
