package market

import (
    "context"
    "errors"
)

// Quote is the normalized per-symbol daily quote returned to clients.
// Currency and exchange are not available from the CSV provider and are
// kept as nullable fields for contract stability.
type Quote struct {
    Symbol   string  `json:"symbol"`
    Name     string  `json:"name"`
    Price    float64 `json:"price"`
    Change   float64 `json:"change"`
    Currency *string `json:"currency"`
    Exchange *string `json:"exchange"`
}

// HistoryPoint is one daily close. T is epoch milliseconds UTC.
type HistoryPoint struct {
    T int64   `json:"t"`
    C float64 `json:"c"`
}

// Attempt records the outcome of a single upstream fetch attempt.
// Diagnostic only; it never influences control flow.
type Attempt struct {
    URL       string `json:"url"`
    Transport string `json:"transport"`
    Status    int    `json:"code"`
    Err       string `json:"err,omitempty"`
    OK        bool   `json:"ok"`
    Snippet   string `json:"snippet,omitempty"`
}

var (
    // ErrUnsupported means the ticker has no provider-side equivalent.
    ErrUnsupported = errors.New("symbol not supported by provider")
    // ErrNoData means every endpoint/transport combination was exhausted
    // or the provider returned nothing parseable.
    ErrNoData = errors.New("no data from provider")
)

// Quoter fetches the latest quote for a single user-facing ticker.
type Quoter interface {
    Quote(ctx context.Context, ticker string) (Quote, []Attempt, error)
}

// Historian fetches the daily close series for a ticker, truncated to r.
type Historian interface {
    History(ctx context.Context, ticker string, r Range) ([]HistoryPoint, []Attempt, error)
}
