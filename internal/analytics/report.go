package analytics

import (
	"time"

	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
)

// Report bundles everything produced for one journal.
type Report struct {
	GeneratedAt  time.Time           `json:"generatedAt"`
	Format       domain.InputFormat  `json:"format"`
	Denomination domain.Denomination `json:"denomination"`
	PriceUSD     float64             `json:"priceUsd"`

	Entries  []domain.LedgerEntry `json:"trades"`
	Summary  Summary              `json:"summary"`
	Insights Insights             `json:"insights"`

	Aggregates  aggregate.Result       `json:"aggregates"`
	Daily       []aggregate.DailyPoint `json:"daily"`
	Chart       []aggregate.ChartPoint `json:"chart"`
	AssetShares []aggregate.AssetShare `json:"assetShares"`

	MonthlyPerformance []MonthlyPerformance `json:"monthlyData"`
	AssetPerformance   []AssetPerformance   `json:"assetData"`
	RiskMetrics        RiskMetrics          `json:"riskMetrics"`

	OpenPositions []domain.AssetPosition `json:"openPositions"`
	OverSells     int                    `json:"overSells"`
}

// Decimals returns the rendering precision for monetary values.
func (r *Report) Decimals() int32 {
	return r.Denomination.Decimals()
}
