package main

import (
    "bytes"
    "compress/gzip"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "runtime"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/gorilla/mux"
    "github.com/rs/cors"
    "github.com/sirupsen/logrus"
    "golang.org/x/sync/errgroup"

    "marketboard/internal/config"
    "marketboard/internal/fscache"
    "marketboard/internal/market"
    "marketboard/internal/news"
    "marketboard/internal/symbol"
)

type headliner interface {
    Headlines(ctx context.Context) []news.Item
}

type server struct {
    cfg config.Config
    log *logrus.Logger

    quoter    market.Quoter // TTL-cached
    rawQuoter market.Quoter // uncached, used for debug requests
    historian market.Historian
    news      headliner
    newsCache fscache.Cache
}

func (s *server) routes() http.Handler {
    r := mux.NewRouter()
    r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
    r.HandleFunc("/quotes", s.handleQuotes).Methods(http.MethodGet)
    r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
    r.HandleFunc("/news", s.handleNews).Methods(http.MethodGet)
    r.Use(s.loggingMiddleware)

    c := cors.New(cors.Options{
        AllowedOrigins: []string{"*"},
        AllowedMethods: []string{http.MethodGet, http.MethodOptions},
        AllowedHeaders: []string{"Content-Type"},
    })
    return c.Handler(recoverPanic(withGzip(r)))
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write([]byte("ok"))
}

type quotesDebug struct {
    Mapped []string         `json:"mapped"`
    Steps  []market.Attempt `json:"steps"`
    Env    map[string]any   `json:"env"`
}

type quotesEnvelope struct {
    Data  []market.Quote `json:"data"`
    Debug quotesDebug    `json:"debug"`
}

func (s *server) handleQuotes(w http.ResponseWriter, r *http.Request) {
    debug := r.URL.Query().Has("debug")
    symbols := splitCSV(r.URL.Query().Get("symbols"))
    if len(symbols) == 0 {
        symbols = s.cfg.Stooq.DefaultSymbols
    }

    ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
    defer cancel()

    quoter := s.quoter
    if debug && s.rawQuoter != nil {
        quoter = s.rawQuoter
    }

    // one slot per symbol; a failed symbol only leaves its slot empty
    type symResult struct {
        quote    market.Quote
        attempts []market.Attempt
        err      error
    }
    results := make([]symResult, len(symbols))

    g := new(errgroup.Group)
    g.SetLimit(s.maxConcurrency())
    for i, sym := range symbols {
        i, sym := i, sym
        g.Go(func() error {
            q, attempts, err := quoter.Quote(ctx, sym)
            results[i] = symResult{quote: q, attempts: attempts, err: err}
            return nil
        })
    }
    _ = g.Wait()

    quotes := make([]market.Quote, 0, len(symbols))
    steps := make([]market.Attempt, 0)
    for _, res := range results {
        steps = append(steps, res.attempts...)
        if res.err != nil {
            continue
        }
        quotes = append(quotes, res.quote)
    }
    sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })

    if debug {
        mapped, _ := symbol.Reverse(symbols)
        if mapped == nil {
            mapped = []string{}
        }
        writeJSON(w, quotesEnvelope{
            Data: quotes,
            Debug: quotesDebug{
                Mapped: mapped,
                Steps:  steps,
                Env: map[string]any{
                    "go":             runtime.Version(),
                    "endpoints":      len(s.cfg.Stooq.BaseURLs),
                    "maxConcurrency": s.maxConcurrency(),
                },
            },
        }, true)
        return
    }
    writeJSON(w, quotes, false)
}

type historyResponse struct {
    Symbol *string               `json:"symbol"`
    Mapped string                `json:"mapped,omitempty"`
    Range  string                `json:"range"`
    Points []market.HistoryPoint `json:"points"`
    Debug  *[]market.Attempt     `json:"debug,omitempty"`
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
    debug := r.URL.Query().Has("debug")
    ticker := strings.TrimSpace(r.URL.Query().Get("symbol"))
    rng := market.ResolveRange(r.URL.Query().Get("range"))

    resp := historyResponse{Range: rng.Token, Points: []market.HistoryPoint{}}
    if debug {
        // always an array, even when nothing was fetched (cache hits,
        // unmapped symbols)
        resp.Debug = &[]market.Attempt{}
    }
    if ticker == "" {
        writeJSON(w, resp, debug)
        return
    }
    resp.Symbol = &ticker

    ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
    defer cancel()

    points, attempts, err := s.historian.History(ctx, ticker, rng)
    if err == nil && points != nil {
        resp.Points = points
    }
    // unmapped symbols and exhausted endpoints both degrade to an empty
    // series with status 200

    if debug {
        if mapped, ok := symbol.Map(ticker); ok {
            resp.Mapped = mapped
        }
        if attempts != nil {
            resp.Debug = &attempts
        }
    }
    writeJSON(w, resp, debug)
}

func (s *server) handleNews(w http.ResponseWriter, r *http.Request) {
    key := s.newsCacheKey()
    if b, ok := s.newsCache.Get(key); ok {
        writeRawJSON(w, b)
        return
    }

    ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
    defer cancel()

    items := s.news.Headlines(ctx)
    var buf bytes.Buffer
    enc := json.NewEncoder(&buf)
    enc.SetEscapeHTML(false)
    if err := enc.Encode(items); err != nil {
        writeEncodingFailure(w)
        return
    }
    b := bytes.TrimRight(buf.Bytes(), "\n")
    if err := s.newsCache.Put(key, b); err != nil && s.log != nil {
        s.log.WithError(err).Warn("news cache write failed")
    }
    writeRawJSON(w, b)
}

func (s *server) newsCacheKey() string {
    urls := make([]string, 0, len(s.cfg.News.Feeds))
    for _, f := range s.cfg.News.Feeds {
        urls = append(urls, f.URL)
    }
    return "news:" + strings.Join(urls, ",")
}

func (s *server) requestTimeout() time.Duration {
    sec := s.cfg.Server.RequestTimeoutSec
    if sec <= 0 {
        sec = 25
    }
    return time.Duration(sec) * time.Second
}

func (s *server) maxConcurrency() int {
    if n := s.cfg.Stooq.MaxConcurrency; n > 0 {
        return n
    }
    return 4
}

// writeJSON encodes to a buffer first so an encoding failure can still
// become a clean 500 with an empty-array body.
func writeJSON(w http.ResponseWriter, v any, pretty bool) {
    var buf bytes.Buffer
    enc := json.NewEncoder(&buf)
    enc.SetEscapeHTML(false)
    if pretty {
        enc.SetIndent("", "  ")
    }
    if err := enc.Encode(v); err != nil {
        writeEncodingFailure(w)
        return
    }
    writeRawJSON(w, bytes.TrimRight(buf.Bytes(), "\n"))
}

func writeRawJSON(w http.ResponseWriter, b []byte) {
    setJSONHeaders(w)
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

func writeEncodingFailure(w http.ResponseWriter) {
    setJSONHeaders(w)
    w.WriteHeader(http.StatusInternalServerError)
    _, _ = w.Write([]byte("[]"))
}

// setJSONHeaders mirrors the response contract: JSON and a wildcard CORS
// header on every response, not only when the request carries an Origin
// (rs/cors covers preflight).
func setJSONHeaders(w http.ResponseWriter) {
    w.Header().Set("Content-Type", "application/json; charset=utf-8")
    w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        if s.log != nil {
            s.log.WithFields(logrus.Fields{
                "path":     r.URL.Path,
                "query":    r.URL.RawQuery,
                "duration": time.Since(start).String(),
            }).Info("request")
        }
    })
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        gw, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return gw
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
