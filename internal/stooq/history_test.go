package stooq

import (
    "encoding/json"
    "reflect"
    "testing"

    "marketboard/internal/market"
)

func TestParseHistory_Basic(t *testing.T) {
    raw := "Date,Open,High,Low,Close,Volume\n" +
        "2024-01-02,10,11,9,10.5,1000\n" +
        "2024-01-03,10.5,12,10,11.2,900"

    got := ParseHistory(raw)
    want := []market.HistoryPoint{
        {T: 1704153600000, C: 10.5},
        {T: 1704240000000, C: 11.2},
    }
    if !reflect.DeepEqual(got, want) {
        t.Errorf("got %v, want %v", got, want)
    }
}

func TestParseHistory_SkipsBadRowsKeepsRest(t *testing.T) {
    raw := "Date,Open,High,Low,Close,Volume\n" +
        "2024-01-02,10,11,9,10.5,1000\n" +
        "2024-01-03,10.5,12,10,N/D,0\n" +
        "not-a-date,1,2,3,4,5\n" +
        "2024-01-04,11,12,10,11.8,800\n" +
        "2024-01-05,short\n"

    got := ParseHistory(raw)
    if len(got) != 2 {
        t.Fatalf("len = %d, want 2: %v", len(got), got)
    }
    if got[0].C != 10.5 || got[1].C != 11.8 {
        t.Errorf("wrong survivors: %v", got)
    }
}

func TestParseHistory_RejectsNonFiniteCloses(t *testing.T) {
    raw := "2024-01-02,10,11,9,10.5,1000\n" +
        "2024-01-03,10.5,12,10,NaN,0\n" +
        "2024-01-04,11,12,10,Inf,0\n" +
        "2024-01-05,11,12,10,-Infinity,0\n" +
        "2024-01-08,11,12,10,11.8,800"

    got := ParseHistory(raw)
    if len(got) != 2 {
        t.Fatalf("len = %d, want 2: %v", len(got), got)
    }
    if got[0].C != 10.5 || got[1].C != 11.8 {
        t.Errorf("wrong survivors: %v", got)
    }
    // the whole series must stay encodable
    if _, err := json.Marshal(got); err != nil {
        t.Errorf("marshal: %v", err)
    }
}

func TestParseHistory_SortsUnsortedInput(t *testing.T) {
    raw := "2024-01-05,1,1,1,5,0\n" +
        "2024-01-02,1,1,1,2,0\n" +
        "2024-01-03,1,1,1,3,0"

    got := ParseHistory(raw)
    if len(got) != 3 {
        t.Fatalf("len = %d", len(got))
    }
    for i := 1; i < len(got); i++ {
        if got[i].T < got[i-1].T {
            t.Fatalf("not ascending: %v", got)
        }
    }
    if got[0].C != 2 || got[2].C != 5 {
        t.Errorf("order wrong: %v", got)
    }
}

func TestParseHistory_DuplicateDatesKept(t *testing.T) {
    raw := "2024-01-02,1,1,1,2,0\n2024-01-02,1,1,1,2.5,0"
    got := ParseHistory(raw)
    if len(got) != 2 || got[0].T != got[1].T {
        t.Errorf("duplicates merged: %v", got)
    }
}

func TestParseHistory_EmptyAndCRLF(t *testing.T) {
    if got := ParseHistory(""); len(got) != 0 {
        t.Errorf("empty input: %v", got)
    }
    got := ParseHistory("Date,Open,High,Low,Close,Volume\r\n2024-01-02,10,11,9,10.5,1000\r\n\r\n")
    if len(got) != 1 || got[0].C != 10.5 {
        t.Errorf("crlf input: %v", got)
    }
}

func TestParseHistory_Idempotent(t *testing.T) {
    raw := "2024-01-02,1,1,1,2,0\n2024-01-03,1,1,1,3,0\n2024-01-02,1,1,1,2.5,0"
    a := ParseHistory(raw)
    b := ParseHistory(raw)
    if !reflect.DeepEqual(a, b) {
        t.Errorf("parse is not deterministic: %v vs %v", a, b)
    }
}
