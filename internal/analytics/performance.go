package analytics

import (
	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
)

// MonthlyPerformance holds one calendar month's statistics over per-trade PnL.
type MonthlyPerformance struct {
	Month       string  `json:"month"`
	Trades      int     `json:"trades"`
	PnL         float64 `json:"pnl"`
	Volume      float64 `json:"volume"`
	WinRate     float64 `json:"winRate"`
	SharpeRatio float64 `json:"sharpeRatio"`
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// AssetPerformance holds one asset's statistics over per-trade PnL.
type AssetPerformance struct {
	Asset       string  `json:"asset"`
	TotalTrades int     `json:"totalTrades"`
	TotalPnL    float64 `json:"totalPnl"`
	WinRate     float64 `json:"winRate"`
	AvgReturn   float64 `json:"avgReturn"`
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpeRatio"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	Correlation float64 `json:"correlation"` // Against the portfolio's daily PnL
}

// PortfolioRisk holds portfolio-level risk figures over daily PnL.
type PortfolioRisk struct {
	ValueAtRisk       float64 `json:"valueAtRisk"`
	ExpectedShortfall float64 `json:"expectedShortfall"`
	MaxDrawdown       float64 `json:"maxDrawdown"`
	Volatility        float64 `json:"volatility"`
	SharpeRatio       float64 `json:"sharpeRatio"`
}

// AssetRisk holds per-asset risk figures over per-trade PnL.
type AssetRisk struct {
	ValueAtRisk float64 `json:"valueAtRisk"`
	Volatility  float64 `json:"volatility"`
	Beta        float64 `json:"beta"` // Correlation with the portfolio, not a regression slope
}

// RiskMetrics combines portfolio and per-asset risk.
type RiskMetrics struct {
	Confidence float64              `json:"confidence"`
	Portfolio  PortfolioRisk        `json:"portfolio"`
	Assets     map[string]AssetRisk `json:"assets"`
}

// groupReturns collects per-trade PnL by key, keeping entry order.
func groupReturns(entries []domain.LedgerEntry, key func(domain.LedgerEntry) string) map[string][]float64 {
	out := make(map[string][]float64)
	for _, e := range entries {
		k := key(e)
		out[k] = append(out[k], e.RealizedPnL)
	}
	return out
}

// MonthlyBreakdown computes MonthlyPerformance for every month, oldest first.
// entries should already be in time order.
func MonthlyBreakdown(entries []domain.LedgerEntry, months map[string]domain.Bucket, opts aggregate.Options) []MonthlyPerformance {
	loc := opts.Location
	returns := groupReturns(entries, func(e domain.LedgerEntry) string { return e.MonthKey(loc) })

	out := make([]MonthlyPerformance, 0, len(months))
	for _, k := range aggregate.SortedKeys(months) {
		b := months[k]
		r := returns[k]
		out = append(out, MonthlyPerformance{
			Month:       k,
			Trades:      b.TradeCount,
			PnL:         b.TotalPnL,
			Volume:      b.TotalVolume,
			WinRate:     b.WinRate,
			SharpeRatio: SharpeRatio(r),
			MaxDrawdown: MaxDrawdown(r),
		})
	}
	return out
}

// AssetBreakdown computes AssetPerformance for every asset in name order.
func AssetBreakdown(entries []domain.LedgerEntry, assets map[string]domain.Bucket, daily []float64) []AssetPerformance {
	returns := groupReturns(entries, func(e domain.LedgerEntry) string { return e.Asset })

	out := make([]AssetPerformance, 0, len(assets))
	for _, k := range aggregate.SortedKeys(assets) {
		b := assets[k]
		r := returns[k]
		out = append(out, AssetPerformance{
			Asset:       k,
			TotalTrades: b.TradeCount,
			TotalPnL:    b.TotalPnL,
			WinRate:     b.WinRate,
			AvgReturn:   Mean(r),
			Volatility:  StdDev(r),
			SharpeRatio: SharpeRatio(r),
			MaxDrawdown: MaxDrawdown(r),
			Correlation: Correlation(r, daily),
		})
	}
	return out
}

// ComputeRiskMetrics derives portfolio risk from daily PnL and asset risk from per-trade PnL.
func ComputeRiskMetrics(entries []domain.LedgerEntry, daily []float64, confidence float64) RiskMetrics {
	rm := RiskMetrics{
		Confidence: confidence,
		Portfolio: PortfolioRisk{
			ValueAtRisk:       ValueAtRisk(daily, confidence),
			ExpectedShortfall: ExpectedShortfall(daily, confidence),
			MaxDrawdown:       MaxDrawdown(daily),
			Volatility:        StdDev(daily),
			SharpeRatio:       SharpeRatio(daily),
		},
		Assets: make(map[string]AssetRisk),
	}
	for asset, r := range groupReturns(entries, func(e domain.LedgerEntry) string { return e.Asset }) {
		rm.Assets[asset] = AssetRisk{
			ValueAtRisk: ValueAtRisk(r, confidence),
			Volatility:  StdDev(r),
			Beta:        Correlation(r, daily),
		}
	}
	return rm
}
