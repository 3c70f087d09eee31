// Package cache decorates a market.Quoter with a per-ticker TTL cache.
package cache

import (
    "context"
    "strings"
    "sync"
    "time"

    "marketboard/internal/market"
)

// entry stores a cached quote with expiry.
type entry struct {
    expiresAt time.Time
    quote     market.Quote
}

// Quoter caches successful quotes per ticker for a TTL. Failures are not
// cached; an expired entry simply falls through to the underlying quoter.
// A cache hit returns no fetch attempts since nothing was fetched.
type Quoter struct {
    Q        market.Quoter
    TTL      time.Duration
    MaxItems int

    mu    sync.RWMutex
    items map[string]entry // key: canonical ticker
}

func (c *Quoter) Quote(ctx context.Context, ticker string) (market.Quote, []market.Attempt, error) {
    if c.TTL <= 0 {
        return c.Q.Quote(ctx, ticker)
    }

    key := strings.ToUpper(strings.TrimSpace(ticker))
    now := time.Now()

    c.mu.RLock()
    e, ok := c.items[key]
    c.mu.RUnlock()
    if ok && now.Before(e.expiresAt) {
        return e.quote, nil, nil
    }

    q, attempts, err := c.Q.Quote(ctx, ticker)
    if err != nil {
        // serve a stale entry rather than nothing when upstream is down
        if ok {
            return e.quote, attempts, nil
        }
        return market.Quote{}, attempts, err
    }

    c.mu.Lock()
    if c.items == nil {
        c.items = make(map[string]entry)
    }
    c.items[key] = entry{expiresAt: now.Add(c.TTL), quote: q}
    if c.MaxItems > 0 && len(c.items) > c.MaxItems {
        // best-effort cap: drop expired entries first, then arbitrary ones
        for k, v := range c.items {
            if now.After(v.expiresAt) {
                delete(c.items, k)
            }
            if len(c.items) <= c.MaxItems {
                break
            }
        }
        for k := range c.items {
            if len(c.items) <= c.MaxItems {
                break
            }
            if k != key {
                delete(c.items, k)
            }
        }
    }
    c.mu.Unlock()

    return q, attempts, nil
}
