package analytics

import (
	"fmt"
	"time"

	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
	"journalAnalytics/internal/ports"
)

// DefaultConfidence is the VaR confidence level used when none is configured.
const DefaultConfidence = 0.95

// Config holds Engine settings.
type Config struct {
	Confidence float64           // VaR / Expected Shortfall confidence in (0,1)
	Aggregate  aggregate.Options // Calendar and zero-fill used for daily series
	Now        func() time.Time  // Clock for Report.GeneratedAt, time.Now when nil
}

// Engine computes insights and full reports from a ledger.
type Engine struct {
	heuristics ports.RiskHeuristics
	cfg        Config
}

// NewEngine creates an Engine.
func NewEngine(heuristics ports.RiskHeuristics, cfg Config) (*Engine, error) {
	if heuristics == nil {
		return nil, fmt.Errorf("risk heuristics are required for the statistics engine")
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = DefaultConfidence
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		return nil, fmt.Errorf("confidence must be between 0 and 1 (exclusive), got %v", cfg.Confidence)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{heuristics: heuristics, cfg: cfg}, nil
}

// Confidence returns the VaR confidence in use.
func (e *Engine) Confidence() float64 {
	return e.cfg.Confidence
}

// Insights computes the statistics record. An empty ledger yields the zero record.
func (e *Engine) Insights(entries []domain.LedgerEntry) Insights {
	if len(entries) == 0 {
		return e.empty()
	}
	sorted := aggregate.SortByTime(entries)
	assets := aggregate.ByAsset(sorted)
	months := aggregate.ByMonth(sorted, e.cfg.Aggregate)
	days := aggregate.DailyPnL(sorted, e.cfg.Aggregate)
	return e.insights(sorted, assets, months, days)
}

func (e *Engine) insights(sorted []domain.LedgerEntry, assets, months map[string]domain.Bucket, days []aggregate.DailyPoint) Insights {
	if len(sorted) == 0 {
		return e.empty()
	}
	daily := aggregate.Returns(days)
	conf := e.cfg.Confidence

	in := Insights{
		Mean:                 Mean(daily),
		SharpeRatio:          SharpeRatio(daily),
		MaxDrawdown:          MaxDrawdown(daily),
		Volatility:           StdDev(daily),
		AverageTradeDuration: AverageTradeDuration(sorted),
		DiversificationScore: DiversificationScore(assets),
		ConcentrationRisk:    ConcentrationRisk(assets),
		MomentumScore:        Momentum(daily),
		VolatilityForecast:   VolatilityForecast(daily),
		CalmarRatio:          CalmarRatio(daily),
		SortinoRatio:         SortinoRatio(daily),
		Confidence:           conf,
		ValueAtRisk:          ValueAtRisk(daily, conf),
		ExpectedShortfall:    ExpectedShortfall(daily, conf),
	}
	in.WinStreak, in.LossStreak = Streaks(entryPnLs(sorted))
	in.BestTradingDay, in.WorstTradingDay = BestWorstDays(days)

	var volume float64
	for _, b := range assets {
		volume += b.TotalVolume
	}
	profile := domain.RiskProfile{
		Volatility:           in.Volatility,
		MaxDrawdown:          in.MaxDrawdown,
		SharpeRatio:          in.SharpeRatio,
		ValueAtRisk:          in.ValueAtRisk,
		ConcentrationRisk:    in.ConcentrationRisk,
		DiversificationScore: in.DiversificationScore,
		TotalVolume:          volume,
	}
	in.RiskScore = e.heuristics.RiskScore(profile)
	profile.RiskScore = in.RiskScore
	in.RiskLevel = e.heuristics.Level(in.RiskScore)
	in.Flags = e.heuristics.Flags(profile)
	in.TrendDirection = e.heuristics.Trend(monthlyPnLs(months))
	in.Recommendations = nonNil(e.heuristics.Recommendations(profile))
	in.RiskWarnings = nonNil(e.heuristics.Warnings(profile))
	return in
}

func (e *Engine) empty() Insights {
	in := emptyInsights(e.cfg.Confidence)
	in.Flags = e.heuristics.Flags(domain.RiskProfile{})
	return in
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// BuildInput is the material for one report.
type BuildInput struct {
	Format        domain.InputFormat
	Denomination  domain.Denomination
	Entries       []domain.LedgerEntry   // Ledger with realized PnL already computed
	OpenPositions []domain.AssetPosition // Positions left open after replay
	OverSells     int                    // Number of truncated sells during replay
	PriceUSD      float64                // USD price of one base unit, scales the cumulative series
}

// Build computes every aggregate and statistic for a ledger.
func (e *Engine) Build(in BuildInput) *Report {
	sorted := aggregate.SortByTime(in.Entries)

	price := in.PriceUSD
	if price <= 0 {
		price = 1
	}
	opts := e.cfg.Aggregate
	opts.Scale = price
	agg := aggregate.Aggregate(sorted, opts)
	days := aggregate.DailyPnL(sorted, opts)
	daily := aggregate.Returns(days)

	open := in.OpenPositions
	if open == nil {
		open = []domain.AssetPosition{}
	}
	denom := in.Denomination
	if denom == "" {
		denom = domain.DenomQuote
	}

	return &Report{
		GeneratedAt:        e.cfg.Now().UTC(),
		Format:             in.Format,
		Denomination:       denom,
		PriceUSD:           price,
		Entries:            sorted,
		Summary:            Summarize(sorted, agg.Assets),
		Insights:           e.insights(sorted, agg.Assets, agg.Monthly, days),
		Aggregates:         agg,
		Daily:              days,
		Chart:              aggregate.Chart(sorted, opts),
		AssetShares:        aggregate.Breakdown(agg.Assets),
		MonthlyPerformance: MonthlyBreakdown(sorted, agg.Monthly, opts),
		AssetPerformance:   AssetBreakdown(sorted, agg.Assets, daily),
		RiskMetrics:        ComputeRiskMetrics(sorted, daily, e.cfg.Confidence),
		OpenPositions:      open,
		OverSells:          in.OverSells,
	}
}
