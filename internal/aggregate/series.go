package aggregate

import (
	"fmt"
	"strings"
	"time"

	"journalAnalytics/internal/domain"
)

// ResetBoundary controls where the cumulative sum restarts.
type ResetBoundary int

const (
	ResetNone ResetBoundary = iota
	ResetDay
)

// ParseResetBoundary converts "none" or "day" into a ResetBoundary.
func ParseResetBoundary(s string) (ResetBoundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ResetNone, nil
	case "day", "daily":
		return ResetDay, nil
	default:
		return ResetNone, fmt.Errorf("unknown reset boundary %q (want none or day)", s)
	}
}

// Point is one step of the cumulative PnL series.
type Point struct {
	Timestamp  int64   `json:"timestamp"`
	Asset      string  `json:"asset"`
	PnL        float64 `json:"pnl"`
	Cumulative float64 `json:"cumulativePnl"`
	Scaled     float64 `json:"scaledCumulativePnl"` // Cumulative times Options.Scale
	DayStart   bool    `json:"dayStart,omitempty"`  // First point of a calendar day
}

// CumulativeSeries sorts entries by timestamp and runs a prefix sum of realized PnL.
// With ResetDay the sum restarts at each calendar day.
func CumulativeSeries(entries []domain.LedgerEntry, reset ResetBoundary, opts Options) []Point {
	sorted := SortByTime(entries)
	loc := opts.loc()
	scale := opts.scale()

	points := make([]Point, 0, len(sorted))
	var running float64
	var day string
	for i, e := range sorted {
		k := e.DayKey(loc)
		dayStart := i == 0 || k != day
		if dayStart && reset == ResetDay {
			running = 0
		}
		day = k
		running += e.RealizedPnL
		points = append(points, Point{
			Timestamp:  e.Timestamp,
			Asset:      e.Asset,
			PnL:        e.RealizedPnL,
			Cumulative: running,
			Scaled:     running * scale,
			DayStart:   dayStart,
		})
	}
	return points
}

// DailyPoint is the activity of one calendar day.
type DailyPoint struct {
	Date   string  `json:"date"`
	PnL    float64 `json:"pnl"`
	Volume float64 `json:"volume"`
	Trades int     `json:"trades"`
}

// DailyPnL returns one point per active day in date order.
// With Options.ZeroFill, days without trades between the first and last active day appear with zeros.
func DailyPnL(entries []domain.LedgerEntry, opts Options) []DailyPoint {
	days := ByDay(entries, opts)
	keys := SortedKeys(days)
	if len(keys) == 0 {
		return []DailyPoint{}
	}
	if opts.ZeroFill {
		keys = fillDays(keys)
	}
	points := make([]DailyPoint, 0, len(keys))
	for _, k := range keys {
		b := days[k]
		points = append(points, DailyPoint{Date: k, PnL: b.TotalPnL, Volume: b.TotalVolume, Trades: b.TradeCount})
	}
	return points
}

// Returns extracts the PnL column of a daily series.
func Returns(days []DailyPoint) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.PnL
	}
	return out
}

// fillDays expands sorted day keys into every calendar day between the first and last.
func fillDays(keys []string) []string {
	first, err1 := time.Parse(dayLayout, keys[0])
	last, err2 := time.Parse(dayLayout, keys[len(keys)-1])
	if err1 != nil || err2 != nil {
		return keys
	}
	filled := make([]string, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		filled = append(filled, d.Format(dayLayout))
	}
	return filled
}

// ChartPoint is one day of the PnL chart.
type ChartPoint struct {
	Date       string  `json:"date"`
	PnL        float64 `json:"pnl"`
	Cumulative float64 `json:"cumulativePnl"`
	Volume     float64 `json:"volume"`
	Trades     int     `json:"trades"`
}

// Chart builds the per-day chart series with a running total.
func Chart(entries []domain.LedgerEntry, opts Options) []ChartPoint {
	days := DailyPnL(entries, opts)
	points := make([]ChartPoint, len(days))
	var running float64
	for i, d := range days {
		running += d.PnL
		points[i] = ChartPoint{Date: d.Date, PnL: d.PnL, Cumulative: running, Volume: d.Volume, Trades: d.Trades}
	}
	return points
}
