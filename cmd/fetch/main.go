package main

import (
    "context"
    "encoding/json"
    "flag"
    "log"
    "os"
    "sort"
    "strconv"
    "strings"
    "time"

    "golang.org/x/sync/errgroup"

    "marketboard/internal/config"
    "marketboard/internal/httpx"
    "marketboard/internal/market"
    "marketboard/internal/market/ratelimit"
    "marketboard/internal/stooq"
)

// fetch is a one-shot CLI: it resolves quotes (or one history series)
// against the same client the server uses and prints the JSON to stdout.
func main() {
    var symbolsCSV string
    var historySymbol string
    var rangeToken string
    var timeout int
    var configPath string
    var pretty bool

    flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", ""), "comma-separated tickers (default: configured watchlist)")
    flag.StringVar(&historySymbol, "history", getenv("HISTORY_SYMBOL", ""), "fetch a daily history series for one ticker instead of quotes")
    flag.StringVar(&rangeToken, "range", getenv("HISTORY_RANGE", ""), "history range token (1D 1W 1M 3M 6M 1Y 2Y 5Y 10Y)")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.BoolVar(&pretty, "pretty", false, "indent the JSON output")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    if timeout != 0 {
        cfg.Server.RequestTimeoutSec = timeout
    }

    clientTimeout := time.Duration(cfg.Stooq.HistoryTimeoutSec) * time.Second
    client := stooq.New(
        stooq.Config{
            BaseURLs:        cfg.Stooq.BaseURLs,
            QuoteTimeout:    time.Duration(cfg.Stooq.QuoteTimeoutSec) * time.Second,
            HistoryTimeout:  time.Duration(cfg.Stooq.HistoryTimeoutSec) * time.Second,
            HistoryCacheTTL: time.Duration(cfg.Stooq.HistoryCacheTTLSec) * time.Second,
        },
        httpx.New(clientTimeout),
        httpx.NewFallback(clientTimeout),
        ratelimit.FromConfig(cfg.Stooq.MaxRequestsPerMinute, cfg.Stooq.Burst, cfg.Stooq.MinRequestIntervalSec),
        nil,
    )

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    if historySymbol != "" {
        rng := market.ResolveRange(rangeToken)
        points, _, err := client.History(ctx, historySymbol, rng)
        if err != nil {
            log.Fatalf("history %s: %v", historySymbol, err)
        }
        emit(map[string]any{"symbol": historySymbol, "range": rng.Token, "points": points}, pretty)
        return
    }

    symbols := splitCSV(symbolsCSV)
    if len(symbols) == 0 {
        symbols = cfg.Stooq.DefaultSymbols
    }

    results := make([]*market.Quote, len(symbols))
    g := new(errgroup.Group)
    g.SetLimit(maxConcurrency(cfg))
    for i, sym := range symbols {
        i, sym := i, sym
        g.Go(func() error {
            q, _, err := client.Quote(ctx, sym)
            if err != nil {
                log.Printf("skip %s: %v", sym, err)
                return nil
            }
            results[i] = &q
            return nil
        })
    }
    _ = g.Wait()

    quotes := make([]market.Quote, 0, len(symbols))
    for _, q := range results {
        if q != nil {
            quotes = append(quotes, *q)
        }
    }
    sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
    emit(quotes, pretty)
}

func maxConcurrency(cfg config.Config) int {
    if n := cfg.Stooq.MaxConcurrency; n > 0 {
        return n
    }
    return 4
}

func emit(v any, pretty bool) {
    enc := json.NewEncoder(os.Stdout)
    enc.SetEscapeHTML(false)
    if pretty {
        enc.SetIndent("", "  ")
    }
    if err := enc.Encode(v); err != nil {
        log.Fatalf("encode: %v", err)
    }
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return def
}
