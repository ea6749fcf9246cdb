package domain

import "time"

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// LedgerEntry is one atomic buy or sell with its realized PnL outcome.
// Entries are values; pipeline stages return new slices instead of mutating input.
// Quantity is positive except on the synthetic sell leg of a round trip that
// received nothing back, which is kept at zero so its PnL is still booked.
type LedgerEntry struct {
	Timestamp   int64   `json:"timestamp"` // Epoch milliseconds
	Asset       string  `json:"asset"`
	Symbol      string  `json:"symbol,omitempty"`
	Side        Side    `json:"side"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Fee         float64 `json:"fee"`
	RealizedPnL float64 `json:"realizedPnl"`
}

// Time returns the entry timestamp as a UTC time.
func (e LedgerEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Notional is quantity times price, the volume contributed by this entry.
func (e LedgerEntry) Notional() float64 {
	return e.Quantity * e.Price
}

// DayKey formats the entry's calendar day in loc (UTC when nil).
func (e LedgerEntry) DayKey(loc *time.Location) string {
	return e.in(loc).Format(dayLayout)
}

// MonthKey formats the entry's calendar month in loc (UTC when nil).
func (e LedgerEntry) MonthKey(loc *time.Location) string {
	return e.in(loc).Format(monthLayout)
}

// DisplaySymbol falls back to the asset when no symbol was supplied.
func (e LedgerEntry) DisplaySymbol() string {
	if e.Symbol != "" {
		return e.Symbol
	}
	return e.Asset
}

func (e LedgerEntry) in(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(e.Timestamp).In(loc)
}

// TotalRealized sums realized PnL over entries.
func TotalRealized(entries []LedgerEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.RealizedPnL
	}
	return total
}
