package market

import "testing"

func TestResolveRange(t *testing.T) {
    tests := []struct {
        in        string
        wantToken string
        wantDays  int
    }{
        {"6M", "6M", 186},
        {"6m", "6M", 186},
        {" 1y ", "1Y", 372},
        {"10Y", "10Y", 3720},
        {"1D", "1D", 1},
        {"", "6M", 186},
        {"bogus", "6M", 186},
        {"42X", "6M", 186},
    }
    for _, tt := range tests {
        got := ResolveRange(tt.in)
        if got.Token != tt.wantToken || got.Days != tt.wantDays {
            t.Errorf("ResolveRange(%q) = %+v, want {%s %d}", tt.in, got, tt.wantToken, tt.wantDays)
        }
    }
}

func TestRange_MaxPoints(t *testing.T) {
    if got := ResolveRange("1D").MaxPoints(); got != 7 {
        t.Errorf("1D MaxPoints = %d, want 7", got)
    }
    if got := ResolveRange("1W").MaxPoints(); got != 7 {
        t.Errorf("1W MaxPoints = %d, want 7", got)
    }
    // ceil(186 * 1.4) = 261
    if got := ResolveRange("6M").MaxPoints(); got != 261 {
        t.Errorf("6M MaxPoints = %d, want 261", got)
    }
    // ceil(31 * 1.4) = 44
    if got := ResolveRange("1M").MaxPoints(); got != 44 {
        t.Errorf("1M MaxPoints = %d, want 44", got)
    }
}

func TestRange_Truncate_KeepsTail(t *testing.T) {
    points := make([]HistoryPoint, 30)
    for i := range points {
        points[i] = HistoryPoint{T: int64(i) * 86400000, C: float64(i)}
    }
    got := ResolveRange("1W").Truncate(points)
    if len(got) != 7 {
        t.Fatalf("len = %d, want 7", len(got))
    }
    if got[0].C != 23 || got[6].C != 29 {
        t.Errorf("expected last 7 points, got first=%v last=%v", got[0], got[6])
    }

    // shorter than the cap stays untouched
    short := points[:5]
    if got := ResolveRange("1W").Truncate(short); len(got) != 5 {
        t.Errorf("short series truncated: len = %d, want 5", len(got))
    }
}
