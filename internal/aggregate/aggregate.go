package aggregate

import (
	"sort"
	"time"

	"journalAnalytics/internal/domain"
)

const dayLayout = "2006-01-02"

// Options controls bucketing and series generation.
type Options struct {
	Location *time.Location // Calendar used for day and month keys, UTC when nil
	ZeroFill bool           // Insert zero days between the first and last active day in daily series
	Scale    float64        // Multiplier for Point.Scaled, 1 when zero
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

// Result groups every aggregate computed from one ledger.
type Result struct {
	Daily   map[string]domain.Bucket `json:"daily"`
	Monthly map[string]domain.Bucket `json:"monthly"`
	Assets  map[string]domain.Bucket `json:"assets"`
	Series  []Point                  `json:"series"`
}

// Aggregate buckets entries by day, month and asset and builds the cumulative series.
func Aggregate(entries []domain.LedgerEntry, opts Options) Result {
	return Result{
		Daily:   ByDay(entries, opts),
		Monthly: ByMonth(entries, opts),
		Assets:  ByAsset(entries),
		Series:  CumulativeSeries(entries, ResetNone, opts),
	}
}

// ByDay buckets entries by calendar day.
func ByDay(entries []domain.LedgerEntry, opts Options) map[string]domain.Bucket {
	loc := opts.loc()
	return group(entries, func(e domain.LedgerEntry) string { return e.DayKey(loc) })
}

// ByMonth buckets entries by calendar month.
func ByMonth(entries []domain.LedgerEntry, opts Options) map[string]domain.Bucket {
	loc := opts.loc()
	return group(entries, func(e domain.LedgerEntry) string { return e.MonthKey(loc) })
}

// ByAsset buckets entries by asset.
func ByAsset(entries []domain.LedgerEntry) map[string]domain.Bucket {
	return group(entries, func(e domain.LedgerEntry) string { return e.Asset })
}

func group(entries []domain.LedgerEntry, key func(domain.LedgerEntry) string) map[string]domain.Bucket {
	buckets := make(map[string]domain.Bucket)
	priceSums := make(map[string]float64)
	for _, e := range entries {
		k := key(e)
		b := buckets[k]
		b.Key = k
		b.TradeCount++
		b.TotalVolume += e.Notional()
		b.TotalPnL += e.RealizedPnL
		b.TotalQuantity += e.Quantity
		if e.RealizedPnL > 0 {
			b.WinningTrades++
		}
		priceSums[k] += e.Price
		buckets[k] = b
	}
	for k, b := range buckets {
		if b.TradeCount > 0 {
			b.WinRate = float64(b.WinningTrades) / float64(b.TradeCount) * 100
			b.AvgPrice = priceSums[k] / float64(b.TradeCount)
		}
		buckets[k] = b
	}
	return buckets
}

// SortedKeys returns the keys of a bucket map in ascending order.
func SortedKeys(buckets map[string]domain.Bucket) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortByTime returns a copy of entries stable-sorted by timestamp.
func SortByTime(entries []domain.LedgerEntry) []domain.LedgerEntry {
	sorted := make([]domain.LedgerEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// AssetShare is one asset's slice of total traded volume.
type AssetShare struct {
	Asset      string  `json:"asset"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	PnL        float64 `json:"pnl"`
	Trades     int     `json:"trades"`
}

// Breakdown lists assets by traded volume, largest first.
func Breakdown(assets map[string]domain.Bucket) []AssetShare {
	var total float64
	for _, b := range assets {
		total += b.TotalVolume
	}
	shares := make([]AssetShare, 0, len(assets))
	for _, k := range SortedKeys(assets) {
		b := assets[k]
		s := AssetShare{Asset: k, Value: b.TotalVolume, PnL: b.TotalPnL, Trades: b.TradeCount}
		if total > 0 {
			s.Percentage = b.TotalVolume / total * 100
		}
		shares = append(shares, s)
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Value > shares[j].Value })
	return shares
}
