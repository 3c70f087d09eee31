package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Stooq struct {
    // BaseURLs are tried in order; each gets the primary and then the
    // fallback transport before moving on.
    BaseURLs              []string `json:"base_urls"`
    QuoteTimeoutSec       int      `json:"quote_timeout_sec"`
    HistoryTimeoutSec     int      `json:"history_timeout_sec"`
    QuoteCacheTTLSec      int      `json:"quote_cache_ttl_sec"`
    HistoryCacheTTLSec    int      `json:"history_cache_ttl_sec"`
    MaxConcurrency        int      `json:"max_concurrency"`
    MaxRequestsPerMinute  int      `json:"max_requests_per_minute"`
    Burst                 int      `json:"burst"`
    MinRequestIntervalSec int      `json:"min_request_interval_sec"`
    DefaultSymbols        []string `json:"default_symbols"`
}

type Feed struct {
    URL    string `json:"url"`
    Source string `json:"source"`
}

type News struct {
    Feeds       []Feed `json:"feeds"`
    CacheTTLSec int    `json:"cache_ttl_sec"`
    CacheDir    string `json:"cache_dir"`
    MaxItems    int    `json:"max_items"`
    TimeoutSec  int    `json:"timeout_sec"`
}

type Logging struct {
    Level      string `json:"level"`
    File       string `json:"file"`
    MaxSizeMB  int    `json:"max_size_mb"`
    MaxBackups int    `json:"max_backups"`
    MaxAgeDays int    `json:"max_age_days"`
}

type Config struct {
    Server  Server  `json:"server"`
    Stooq   Stooq   `json:"stooq"`
    News    News    `json:"news"`
    Logging Logging `json:"logging"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 25},
        Stooq: Stooq{
            BaseURLs: []string{
                "https://stooq.com",
                "http://stooq.com",
                "https://stooq.pl",
                "http://stooq.pl",
            },
            QuoteTimeoutSec:    10,
            HistoryTimeoutSec:  12,
            QuoteCacheTTLSec:   60,
            HistoryCacheTTLSec: 60,
            MaxConcurrency:     4,
            DefaultSymbols: []string{
                // USA
                "AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "NFLX", "AMD", "INTC", "IBM", "ORCL",
                // Spain (.MC), ADR where one exists
                "SAN.MC", "BBVA.MC", "IBE.MC", "ITX.MC", "TEF.MC", "REP.MC", "ACS.MC", "FER.MC", "AENA.MC", "GRF.MC",
                // Europe
                "SAP.DE", "BMW.DE", "SIE.DE", "AIR.PA",
                // Indices
                "^GSPC", "^NDX", "^IBEX",
            },
        },
        News: News{
            Feeds: []Feed{
                {URL: "https://feeds.reuters.com/reuters/businessNews", Source: "Reuters"},
                {URL: "https://e00-expansion.uecdn.es/rss/economia.xml", Source: "Expansión"},
                {URL: "https://cincodias.elpais.com/rss/economia.xml", Source: "CincoDías"},
            },
            CacheTTLSec: 300,
            MaxItems:    30,
            TimeoutSec:  8,
        },
        Logging: Logging{Level: "info"},
    }
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("STOOQ_BASE_URLS"); v != "" { cfg.Stooq.BaseURLs = splitCSV(v) }
    if v := os.Getenv("STOOQ_QUOTE_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Stooq.QuoteTimeoutSec = x }
    }
    if v := os.Getenv("STOOQ_HISTORY_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Stooq.HistoryTimeoutSec = x }
    }
    if v := os.Getenv("STOOQ_QUOTE_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Stooq.QuoteCacheTTLSec = x }
    }
    if v := os.Getenv("STOOQ_HISTORY_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Stooq.HistoryCacheTTLSec = x }
    }
    if v := os.Getenv("STOOQ_MAX_CONCURRENCY"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Stooq.MaxConcurrency = x }
    }
    if v := os.Getenv("STOOQ_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Stooq.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("STOOQ_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Stooq.Burst = x }
    }
    if v := os.Getenv("STOOQ_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Stooq.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("DEFAULT_SYMBOLS"); v != "" { cfg.Stooq.DefaultSymbols = splitCSV(v) }
    if v := os.Getenv("NEWS_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.News.CacheTTLSec = x }
    }
    if v := os.Getenv("NEWS_CACHE_DIR"); v != "" { cfg.News.CacheDir = v }
    if v := os.Getenv("NEWS_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.News.TimeoutSec = x }
    }
    if v := os.Getenv("NEWS_MAX_ITEMS"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.News.MaxItems = x }
    }
    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Logging.Level = v }
    if v := os.Getenv("LOG_FILE"); v != "" { cfg.Logging.File = v }
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
