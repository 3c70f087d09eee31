package market

import (
    "math"
    "strings"
)

// Range is a named lookback window bound to an approximate trading-day count.
type Range struct {
    Token string
    Days  int
}

// rangeDays maps range tokens to approximate calendar day budgets.
var rangeDays = map[string]int{
    "1D": 1, "1W": 7, "1M": 31, "3M": 93, "6M": 186,
    "1Y": 372, "2Y": 744, "5Y": 1860, "10Y": 3720,
}

// DefaultRange is used when the requested token is unknown or missing.
const DefaultRange = "6M"

// ResolveRange looks a token up case-insensitively; unknown tokens fall
// back to DefaultRange.
func ResolveRange(token string) Range {
    t := strings.ToUpper(strings.TrimSpace(token))
    if d, ok := rangeDays[t]; ok {
        return Range{Token: t, Days: d}
    }
    return Range{Token: DefaultRange, Days: rangeDays[DefaultRange]}
}

// MaxPoints is the number of daily closes kept for this range.
// 1D and 1W have no intraday feed behind them, so a week of daily closes
// stands in for both. Other ranges pad the trading-day budget by 1.4 to
// account for weekends and holidays absent from a trading-day count.
func (r Range) MaxPoints() int {
    if r.Token == "1D" || r.Token == "1W" {
        return 7
    }
    target := r.Days
    if target < 2 {
        target = 2
    }
    return int(math.Ceil(float64(target) * 1.4))
}

// Truncate keeps the most recent MaxPoints entries of an ascending series.
func (r Range) Truncate(points []HistoryPoint) []HistoryPoint {
    max := r.MaxPoints()
    if len(points) > max {
        return points[len(points)-max:]
    }
    return points
}
