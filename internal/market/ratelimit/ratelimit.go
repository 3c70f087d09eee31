// Package ratelimit gates upstream requests. Stooq publishes no SLA and
// throttles aggressive callers, so the client can be configured to pace
// itself with either a token bucket or a minimum interval between calls.
package ratelimit

import (
    "context"
    "sync"
    "time"
)

// Gate blocks until the caller may issue the next upstream request.
type Gate interface {
    Wait(ctx context.Context) error
}

// TokenBucket is a stdlib-only token bucket limiter.
// - rate: tokens per second
// - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
    rate     float64
    capacity float64

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
    if tokensPerSecond <= 0 { tokensPerSecond = 0.0000001 }
    if burst <= 0 { burst = 1 }
    return &TokenBucket{
        rate:     tokensPerSecond,
        capacity: float64(burst),
        tokens:   float64(burst), // start full to allow an initial burst
        last:     time.Now(),
    }
}

// Wait blocks until one token is available or context is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
    for {
        tb.mu.Lock()
        now := time.Now()
        // Refill
        elapsed := now.Sub(tb.last).Seconds()
        if elapsed > 0 {
            tb.tokens += elapsed * tb.rate
            if tb.tokens > tb.capacity {
                tb.tokens = tb.capacity
            }
            tb.last = now
        }
        if tb.tokens >= 1 {
            tb.tokens -= 1
            tb.mu.Unlock()
            return nil
        }
        // Need to wait for the remaining fraction
        deficit := 1 - tb.tokens
        tb.mu.Unlock()
        waitDur := time.Duration(deficit/tb.rate*1e9) * time.Nanosecond
        if waitDur <= 0 { waitDur = time.Millisecond }
        timer := time.NewTimer(waitDur)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}

// MinInterval enforces a minimum time between calls. Concurrent callers
// wait until the interval has elapsed since the last call, or return early
// if the context is canceled.
type MinInterval struct {
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Wait(ctx context.Context) error {
    if m.Interval <= 0 {
        return nil
    }
    m.mu.Lock()
    wait := time.Until(m.last.Add(m.Interval))
    m.mu.Unlock()
    if wait > 0 {
        t := time.NewTimer(wait)
        defer t.Stop()
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-t.C:
        }
    }
    m.mu.Lock()
    m.last = time.Now()
    m.mu.Unlock()
    return nil
}

// FromConfig picks a gate: token bucket when an RPM cap is set, otherwise
// a minimum interval, otherwise nil (no gating).
func FromConfig(maxPerMinute, burst, minIntervalSec int) Gate {
    if maxPerMinute > 0 {
        if burst <= 0 {
            burst = 1
        }
        return NewTokenBucket(float64(maxPerMinute)/60.0, burst)
    }
    if minIntervalSec > 0 {
        return &MinInterval{Interval: time.Duration(minIntervalSec) * time.Second}
    }
    return nil
}
