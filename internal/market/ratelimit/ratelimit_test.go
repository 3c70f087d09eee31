package ratelimit

import (
    "context"
    "testing"
    "time"
)

func TestTokenBucket_BurstThenBlocks(t *testing.T) {
    tb := NewTokenBucket(1000, 2)

    ctx := context.Background()
    start := time.Now()
    for i := 0; i < 2; i++ {
        if err := tb.Wait(ctx); err != nil {
            t.Fatalf("wait %d: %v", i, err)
        }
    }
    if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
        t.Errorf("burst should not block, took %v", elapsed)
    }
}

func TestTokenBucket_ContextCancel(t *testing.T) {
    tb := NewTokenBucket(0.001, 1)
    ctx := context.Background()
    if err := tb.Wait(ctx); err != nil {
        t.Fatalf("first wait: %v", err)
    }

    ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
    defer cancel()
    if err := tb.Wait(ctx); err == nil {
        t.Fatal("expected context error on drained bucket")
    }
}

func TestMinInterval_SpacesCalls(t *testing.T) {
    g := &MinInterval{Interval: 30 * time.Millisecond}
    ctx := context.Background()

    if err := g.Wait(ctx); err != nil {
        t.Fatal(err)
    }
    start := time.Now()
    if err := g.Wait(ctx); err != nil {
        t.Fatal(err)
    }
    if time.Since(start) < 25*time.Millisecond {
        t.Error("second call was not spaced")
    }
}

func TestFromConfig(t *testing.T) {
    if g := FromConfig(0, 0, 0); g != nil {
        t.Errorf("expected nil gate, got %T", g)
    }
    if _, ok := FromConfig(60, 2, 0).(*TokenBucket); !ok {
        t.Error("expected token bucket when rpm set")
    }
    if _, ok := FromConfig(0, 0, 5).(*MinInterval); !ok {
        t.Error("expected min interval when only interval set")
    }
}
