// Package symbol maps user-facing tickers to the Stooq symbol dialect.
// It is the single source of truth for the mapping; both the quote and
// history flows must go through it.
package symbol

import (
    "regexp"
    "strings"
)

// indexMap covers the indices the dashboard exposes.
var indexMap = map[string]string{
    "^GSPC": "^spx",
    "^NDX":  "^ndx",
    "^IBEX": "^ibex",
}

// adrMap substitutes Madrid listings with their US ADR where one exists.
// Other .MC symbols have no Stooq equivalent under this scheme.
var adrMap = map[string]string{
    "SAN": "SAN.US",
    "TEF": "TEF.US",
    "GRF": "GRFS.US",
}

var exchangeSuffix = regexp.MustCompile(`\.[A-Z]{2}$`)

// Map resolves a ticker to a Stooq symbol. The second return value is
// false when the provider has no equivalent for the ticker; Map never
// fails otherwise.
func Map(ticker string) (string, bool) {
    s := strings.ToUpper(strings.TrimSpace(ticker))
    if s == "" {
        return "", false
    }

    if m, ok := indexMap[s]; ok {
        return m, true
    }

    // Xetra and Paris use the same suffix convention on Stooq.
    if strings.HasSuffix(s, ".DE") || strings.HasSuffix(s, ".PA") {
        return strings.ToLower(s), true
    }

    if strings.HasSuffix(s, ".MC") {
        base := strings.TrimSuffix(s, ".MC")
        if adr, ok := adrMap[base]; ok {
            return strings.ToLower(adr), true
        }
        return "", false
    }

    if !exchangeSuffix.MatchString(s) {
        s += ".US"
    }
    return strings.ToLower(s), true
}

// Reverse builds the provider-symbol to original-ticker lookup for a set
// of tickers, dropping the ones the provider does not support. Mapped
// preserves the input order of the resolvable tickers.
func Reverse(tickers []string) (mapped []string, back map[string]string) {
    back = make(map[string]string, len(tickers))
    for _, t := range tickers {
        if m, ok := Map(t); ok {
            if _, dup := back[m]; !dup {
                mapped = append(mapped, m)
            }
            back[m] = strings.ToUpper(strings.TrimSpace(t))
        }
    }
    return mapped, back
}
