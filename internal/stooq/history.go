package stooq

import (
    "encoding/csv"
    "sort"
    "strconv"
    "strings"
    "time"

    "marketboard/internal/market"
)

// ParseHistory parses a multi-line daily history CSV
// (Date,Open,High,Low,Close,Volume) into an ascending series of daily
// closes. Rows with a non-numeric close or an unparseable date are skipped
// without affecting the rest of the payload. Upstream ordering is not
// trusted; the result is sorted. Duplicate dates are kept as delivered.
func ParseHistory(raw string) []market.HistoryPoint {
    lines := cleanLines(raw)
    if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), "date,open,high,low,close") {
        lines = lines[1:]
    }

    points := make([]market.HistoryPoint, 0, len(lines))
    for _, ln := range lines {
        rec, err := csv.NewReader(strings.NewReader(ln)).Read()
        if err != nil || len(rec) < 5 {
            continue
        }
        closeF, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
        if err != nil || !isFinite(closeF) {
            continue
        }
        day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(rec[0]), time.UTC)
        if err != nil {
            continue
        }
        points = append(points, market.HistoryPoint{T: day.Unix() * 1000, C: closeF})
    }

    sort.SliceStable(points, func(i, j int) bool { return points[i].T < points[j].T })
    return points
}
