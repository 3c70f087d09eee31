package stooq

import (
    "encoding/csv"
    "math"
    "strconv"
    "strings"

    "marketboard/internal/market"
)

// ParseQuote parses a single-line quote CSV response. A header row
// beginning with "Symbol,Date" is discarded when present. back maps
// provider symbols to the original user tickers; an unknown provider
// symbol falls back to its own uppercased form.
//
// Records whose close is non-numeric or not strictly positive are dropped
// entirely, never emitted with a placeholder price.
func ParseQuote(raw string, back map[string]string) (market.Quote, bool) {
    lines := cleanLines(raw)
    if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "symbol,date") {
        lines = lines[1:]
    }
    if len(lines) == 0 {
        return market.Quote{}, false
    }

    rec, err := csv.NewReader(strings.NewReader(lines[0])).Read()
    if err != nil || len(rec) < 9 {
        return market.Quote{}, false
    }
    // Columns: Symbol,Date,Time,Open,High,Low,Close,Volume,Name
    sym, open, close_, name := rec[0], rec[3], rec[6], rec[8]

    // ParseFloat accepts "NaN" and "Inf", which the quote feed can carry
    // on bad days; both must drop the record like any other non-numeric
    closeF, err := strconv.ParseFloat(strings.TrimSpace(close_), 64)
    if err != nil || !isFinite(closeF) || closeF <= 0 {
        return market.Quote{}, false
    }

    change := 0.0
    if openF, err := strconv.ParseFloat(strings.TrimSpace(open), 64); err == nil && isFinite(openF) && openF > 0 {
        change = (closeF - openF) / openF * 100.0
    }

    orig := back[strings.ToLower(strings.TrimSpace(sym))]
    if orig == "" {
        orig = strings.ToUpper(strings.TrimSpace(sym))
    }
    name = strings.TrimSpace(name)
    if name == "" {
        name = orig
    }

    return market.Quote{
        Symbol: orig,
        Name:   name,
        Price:  round(closeF, 4),
        Change: round(change, 2),
    }, true
}

func cleanLines(raw string) []string {
    raw = strings.ReplaceAll(raw, "\r\n", "\n")
    parts := strings.Split(raw, "\n")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func isFinite(v float64) bool {
    return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round(v float64, decimals int) float64 {
    p := math.Pow10(decimals)
    return math.Round(v*p) / p
}
