package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"

    "marketboard/internal/config"
    "marketboard/internal/fscache"
    "marketboard/internal/httpx"
    "marketboard/internal/logger"
    "marketboard/internal/market/cache"
    "marketboard/internal/market/ratelimit"
    "marketboard/internal/news"
    "marketboard/internal/stooq"
)

func main() {
    _ = godotenv.Load()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        panic(err)
    }
    log := logger.New(logger.Config{
        Level:      cfg.Logging.Level,
        File:       cfg.Logging.File,
        MaxSizeMB:  cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
    })

    clientTimeout := time.Duration(cfg.Stooq.HistoryTimeoutSec) * time.Second
    stooqClient := stooq.New(
        stooq.Config{
            BaseURLs:        cfg.Stooq.BaseURLs,
            QuoteTimeout:    time.Duration(cfg.Stooq.QuoteTimeoutSec) * time.Second,
            HistoryTimeout:  time.Duration(cfg.Stooq.HistoryTimeoutSec) * time.Second,
            HistoryCacheTTL: time.Duration(cfg.Stooq.HistoryCacheTTLSec) * time.Second,
        },
        httpx.New(clientTimeout),
        httpx.NewFallback(clientTimeout),
        ratelimit.FromConfig(cfg.Stooq.MaxRequestsPerMinute, cfg.Stooq.Burst, cfg.Stooq.MinRequestIntervalSec),
        logger.WithComponent(log, "stooq"),
    )

    feeds := make([]news.Feed, 0, len(cfg.News.Feeds))
    for _, f := range cfg.News.Feeds {
        feeds = append(feeds, news.Feed{URL: f.URL, Source: f.Source})
    }
    newsService := news.NewService(
        feeds,
        httpx.New(time.Duration(cfg.News.TimeoutSec)*time.Second),
        cfg.News.MaxItems,
        logger.WithComponent(log, "news"),
    )

    srv := &server{
        cfg: cfg,
        log: log,
        quoter: &cache.Quoter{
            Q:        stooqClient,
            TTL:      time.Duration(cfg.Stooq.QuoteCacheTTLSec) * time.Second,
            MaxItems: 1024,
        },
        rawQuoter: stooqClient,
        historian: stooqClient,
        news:      newsService,
        newsCache: fscache.Cache{
            Dir: cfg.News.CacheDir,
            TTL: time.Duration(cfg.News.CacheTTLSec) * time.Second,
        },
    }

    httpSrv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           srv.routes(),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSec+5) * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Infof("server listening on :%s", cfg.Server.Port)
        if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = httpSrv.Shutdown(shutdownCtx)
}
