package analytics

import (
	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
)

const msPerDay = 24 * 60 * 60 * 1000

// Insights is the portfolio-level statistics record.
// Risk figures are over daily PnL; streaks are over individual entries.
type Insights struct {
	// Performance
	Mean        float64 `json:"mean"`
	SharpeRatio float64 `json:"sharpeRatio"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	Volatility  float64 `json:"volatility"`
	WinStreak   int     `json:"winStreak"`
	LossStreak  int     `json:"lossStreak"`

	// Timing
	BestTradingDay       string  `json:"bestTradingDay"`
	WorstTradingDay      string  `json:"worstTradingDay"`
	AverageTradeDuration float64 `json:"averageTradeDuration"` // Whole days between consecutive entries of the same asset

	// Risk
	RiskScore            float64          `json:"riskScore"`
	RiskLevel            domain.RiskLevel `json:"riskLevel"`
	DiversificationScore float64          `json:"diversificationScore"`
	ConcentrationRisk    float64          `json:"concentrationRisk"`
	Flags                domain.RiskFlags `json:"flags"`

	// Trend
	TrendDirection     domain.TrendDirection `json:"trendDirection"`
	MomentumScore      float64               `json:"momentumScore"`
	VolatilityForecast float64               `json:"volatilityForecast"`

	Recommendations []string `json:"recommendations"`
	RiskWarnings    []string `json:"riskWarnings"`

	// Advanced
	CalmarRatio       float64 `json:"calmarRatio"`
	SortinoRatio      float64 `json:"sortinoRatio"`
	Confidence        float64 `json:"confidence"`
	ValueAtRisk       float64 `json:"valueAtRisk"`
	ExpectedShortfall float64 `json:"expectedShortfall"`
}

// emptyInsights is the record returned for a ledger with no entries.
func emptyInsights(confidence float64) Insights {
	return Insights{
		TrendDirection:  domain.TrendNeutral,
		RiskLevel:       domain.RiskLow,
		Recommendations: []string{},
		RiskWarnings:    []string{},
		Confidence:      confidence,
	}
}

// DiversificationScore is 100 minus the Herfindahl index of trade counts, in percent.
func DiversificationScore(assets map[string]domain.Bucket) float64 {
	counts := make([]float64, 0, len(assets))
	for _, k := range aggregate.SortedKeys(assets) {
		counts = append(counts, float64(assets[k].TradeCount))
	}
	if len(counts) == 0 {
		return 0
	}
	score := 100 - Herfindahl(counts)*100
	if score < 0 {
		return 0
	}
	return score
}

// ConcentrationRisk is the Herfindahl index of traded volume, in percent.
func ConcentrationRisk(assets map[string]domain.Bucket) float64 {
	volumes := make([]float64, 0, len(assets))
	for _, k := range aggregate.SortedKeys(assets) {
		volumes = append(volumes, assets[k].TotalVolume)
	}
	return Herfindahl(volumes) * 100
}

// BestWorstDays returns the dates with the highest and lowest PnL; ties go to the earlier date.
func BestWorstDays(days []aggregate.DailyPoint) (best, worst string) {
	var bestPnL, worstPnL float64
	for i, d := range days {
		if i == 0 || d.PnL > bestPnL {
			best, bestPnL = d.Date, d.PnL
		}
		if i == 0 || d.PnL < worstPnL {
			worst, worstPnL = d.Date, d.PnL
		}
	}
	return best, worst
}

// AverageTradeDuration averages the whole days between time-adjacent entries of the same asset.
// entries must be sorted by time.
func AverageTradeDuration(entries []domain.LedgerEntry) float64 {
	var total float64
	var n int
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.Asset != cur.Asset {
			continue
		}
		total += float64((cur.Timestamp - prev.Timestamp) / msPerDay)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// entryPnLs extracts realized PnL in entry order.
func entryPnLs(entries []domain.LedgerEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.RealizedPnL
	}
	return out
}

// monthlyPnLs returns month bucket PnL, oldest first.
func monthlyPnLs(months map[string]domain.Bucket) []float64 {
	keys := aggregate.SortedKeys(months)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = months[k].TotalPnL
	}
	return out
}
