package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
	"journalAnalytics/internal/risk"
)

type stubHeuristics struct {
	score    float64
	trend    domain.TrendDirection
	profiles []domain.RiskProfile
	months   []float64
}

func (s *stubHeuristics) RiskScore(p domain.RiskProfile) float64 {
	s.profiles = append(s.profiles, p)
	return s.score
}

func (s *stubHeuristics) Trend(m []float64) domain.TrendDirection {
	s.months = m
	return s.trend
}

func (s *stubHeuristics) Recommendations(p domain.RiskProfile) []string { return nil }

func (s *stubHeuristics) Warnings(p domain.RiskProfile) []string {
	return []string{"warn"}
}

func (s *stubHeuristics) Level(score float64) domain.RiskLevel { return domain.RiskModerate }

func (s *stubHeuristics) Flags(p domain.RiskProfile) domain.RiskFlags {
	return domain.RiskFlags{HighConcentration: true}
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	h, err := risk.NewHeuristics(risk.DefaultConfig())
	require.NoError(t, err)
	if cfg.Now == nil {
		cfg.Now = fixedNow
	}
	e, err := NewEngine(h, cfg)
	require.NoError(t, err)
	return e
}

func ts(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UnixMilli()
}

// replayedExample is a buy of 2 at 100 followed by a sell of 1 at 120, fee 0.1 each.
func replayedExample() []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{Timestamp: ts("2025-01-01T09:00:00Z"), Asset: "SOL", Side: domain.Buy, Quantity: 2, Price: 100, Fee: 0.1},
		{Timestamp: ts("2025-01-01T11:00:00Z"), Asset: "SOL", Side: domain.Sell, Quantity: 1, Price: 120, Fee: 0.1, RealizedPnL: 19.9},
	}
}

// multiDay has one closing entry per day with PnL 5, -10, 3, -2.
func multiDay() []domain.LedgerEntry {
	return []domain.LedgerEntry{
		{Timestamp: ts("2025-01-01T10:00:00Z"), Asset: "A", Side: domain.Sell, Quantity: 1, Price: 10, RealizedPnL: 5},
		{Timestamp: ts("2025-01-02T10:00:00Z"), Asset: "B", Side: domain.Sell, Quantity: 1, Price: 10, RealizedPnL: -10},
		{Timestamp: ts("2025-01-03T10:00:00Z"), Asset: "A", Side: domain.Sell, Quantity: 1, Price: 10, RealizedPnL: 3},
		{Timestamp: ts("2025-02-04T10:00:00Z"), Asset: "B", Side: domain.Sell, Quantity: 1, Price: 10, RealizedPnL: -2},
	}
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, Config{})
	assert.Error(t, err)

	h, err := risk.NewHeuristics(risk.DefaultConfig())
	require.NoError(t, err)

	_, err = NewEngine(h, Config{Confidence: 1.5})
	assert.Error(t, err)

	e, err := NewEngine(h, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, e.Confidence())
}

func TestInsights_EmptyLedgerIsAllZero(t *testing.T) {
	e := newTestEngine(t, Config{})

	in := e.Insights(nil)
	assert.Equal(t, domain.TrendNeutral, in.TrendDirection)
	assert.NotNil(t, in.Recommendations)
	assert.Empty(t, in.Recommendations)
	assert.NotNil(t, in.RiskWarnings)
	assert.Empty(t, in.RiskWarnings)
	assert.Zero(t, in.SharpeRatio)
	assert.Zero(t, in.ValueAtRisk)
	assert.Zero(t, in.ExpectedShortfall)
	assert.Zero(t, in.RiskScore)
	assert.Zero(t, in.WinStreak)
	assert.Equal(t, emptyInsights(DefaultConfidence), in)
}

func TestInsights_MultiDay(t *testing.T) {
	e := newTestEngine(t, Config{})
	in := e.Insights(multiDay())

	assert.InDelta(t, -1.0, in.Mean, 1e-12)
	assert.InDelta(t, 10.0, in.MaxDrawdown, 1e-12)
	assert.InDelta(t, 10.0, in.ValueAtRisk, 1e-12)
	assert.InDelta(t, 10.0, in.ExpectedShortfall, 1e-12)
	assert.Equal(t, "2025-01-01", in.BestTradingDay)
	assert.Equal(t, "2025-01-02", in.WorstTradingDay)
	assert.Equal(t, 1, in.WinStreak)
	assert.Equal(t, 1, in.LossStreak)

	// Two equally traded assets.
	assert.InDelta(t, 50.0, in.DiversificationScore, 1e-9)
	assert.InDelta(t, 50.0, in.ConcentrationRisk, 1e-9)

	// Assets alternate, so no two adjacent entries share an asset.
	assert.Zero(t, in.AverageTradeDuration)
}

func TestAverageTradeDuration(t *testing.T) {
	entries := []domain.LedgerEntry{
		{Timestamp: ts("2025-01-01T10:00:00Z"), Asset: "A"},
		{Timestamp: ts("2025-01-03T09:00:00Z"), Asset: "A"},
		{Timestamp: ts("2025-01-06T10:00:00Z"), Asset: "A"},
	}
	// Gaps of 1d23h and 3d1h truncate to 1 and 3 whole days.
	assert.InDelta(t, 2.0, AverageTradeDuration(entries), 1e-12)
	assert.Zero(t, AverageTradeDuration(entries[:1]))
}

func TestInsights_UsesHeuristics(t *testing.T) {
	stub := &stubHeuristics{score: 42, trend: domain.TrendBearish}
	e, err := NewEngine(stub, Config{Now: fixedNow})
	require.NoError(t, err)

	in := e.Insights(multiDay())
	assert.Equal(t, 42.0, in.RiskScore)
	assert.Equal(t, domain.RiskModerate, in.RiskLevel)
	assert.Equal(t, domain.TrendBearish, in.TrendDirection)
	assert.Equal(t, []string{}, in.Recommendations)
	assert.Equal(t, []string{"warn"}, in.RiskWarnings)
	assert.Equal(t, domain.RiskFlags{HighConcentration: true}, in.Flags)

	require.Len(t, stub.profiles, 1)
	assert.InDelta(t, 40.0, stub.profiles[0].TotalVolume, 1e-9)
	assert.InDelta(t, in.ValueAtRisk, stub.profiles[0].ValueAtRisk, 1e-12)
	assert.Equal(t, []float64{-2, -2}, stub.months)
}

func TestBuild_SingleTrade(t *testing.T) {
	e := newTestEngine(t, Config{})

	rep := e.Build(BuildInput{
		Format:        domain.FormatStandardTrades,
		Denomination:  domain.DenomQuote,
		Entries:       replayedExample(),
		OpenPositions: []domain.AssetPosition{{Asset: "SOL", OpenQuantity: 1, AverageCost: 100}},
	})

	assert.Equal(t, fixedNow(), rep.GeneratedAt)
	assert.Equal(t, 1.0, rep.PriceUSD)
	assert.Equal(t, int32(2), rep.Decimals())

	assert.Equal(t, 2, rep.Summary.TotalTrades)
	assert.InDelta(t, 19.9, rep.Summary.TotalPnL, 1e-9)
	assert.InDelta(t, 50.0, rep.Summary.WinRate, 1e-9)
	assert.InDelta(t, 0.2, rep.Summary.TotalFees, 1e-9)
	assert.Equal(t, "SOL", rep.Summary.BestAsset)

	series := rep.Aggregates.Series
	require.Len(t, series, 2)
	assert.InDelta(t, 19.9, series[len(series)-1].Cumulative, 1e-9)

	require.Len(t, rep.Daily, 1)
	require.Len(t, rep.Chart, 1)
	require.Len(t, rep.AssetShares, 1)
	assert.InDelta(t, 100.0, rep.AssetShares[0].Percentage, 1e-9)

	in := rep.Insights
	assert.Equal(t, 100.0, in.RiskScore)
	assert.Equal(t, domain.RiskHigh, in.RiskLevel)
	assert.Zero(t, in.DiversificationScore)
	assert.InDelta(t, 19.9, in.ValueAtRisk, 1e-9)
	assert.Zero(t, in.ExpectedShortfall)
	assert.Equal(t, domain.TrendNeutral, in.TrendDirection)
	assert.Len(t, in.Recommendations, 3)
	assert.Len(t, in.RiskWarnings, 1)

	require.Len(t, rep.OpenPositions, 1)
	assert.Equal(t, 1.0, rep.OpenPositions[0].OpenQuantity)
}

func TestBuild_ScalesSeriesByPrice(t *testing.T) {
	e := newTestEngine(t, Config{})
	rep := e.Build(BuildInput{
		Format:       domain.FormatRoundTrip,
		Denomination: domain.DenomSOL,
		Entries:      replayedExample(),
		PriceUSD:     150,
	})

	last := rep.Aggregates.Series[len(rep.Aggregates.Series)-1]
	assert.InDelta(t, 19.9*150, last.Scaled, 1e-6)
	assert.Equal(t, 150.0, rep.PriceUSD)
	assert.Equal(t, int32(4), rep.Decimals())
}

func TestBuild_EmptyLedger(t *testing.T) {
	e := newTestEngine(t, Config{})
	rep := e.Build(BuildInput{Format: domain.FormatStandardTrades})

	assert.Equal(t, domain.DenomQuote, rep.Denomination)
	assert.Zero(t, rep.Summary.TotalTrades)
	assert.Empty(t, rep.Daily)
	assert.NotNil(t, rep.OpenPositions)
	assert.Equal(t, emptyInsights(DefaultConfidence), rep.Insights)
	assert.Empty(t, rep.MonthlyPerformance)
	assert.Empty(t, rep.RiskMetrics.Assets)
}

func TestBuild_ZeroFillWidensDailySeries(t *testing.T) {
	entries := multiDay()[:3]
	entries[2].Timestamp = ts("2025-01-05T10:00:00Z")

	sparse := newTestEngine(t, Config{}).Build(BuildInput{Entries: entries})
	filled := newTestEngine(t, Config{Aggregate: aggregate.Options{ZeroFill: true}}).Build(BuildInput{Entries: entries})

	assert.Len(t, sparse.Daily, 3)
	assert.Len(t, filled.Daily, 5)
	assert.InDelta(t, sparse.Insights.Mean*3/5, filled.Insights.Mean, 1e-12)
}

func TestBuild_Performance(t *testing.T) {
	rep := newTestEngine(t, Config{}).Build(BuildInput{Entries: multiDay()})

	require.Len(t, rep.MonthlyPerformance, 2)
	jan := rep.MonthlyPerformance[0]
	assert.Equal(t, "2025-01", jan.Month)
	assert.Equal(t, 3, jan.Trades)
	assert.InDelta(t, -2.0, jan.PnL, 1e-12)
	assert.InDelta(t, 10.0, jan.MaxDrawdown, 1e-12)

	require.Len(t, rep.AssetPerformance, 2)
	a := rep.AssetPerformance[0]
	assert.Equal(t, "A", a.Asset)
	assert.InDelta(t, 8.0, a.TotalPnL, 1e-12)
	assert.InDelta(t, 100.0, a.WinRate, 1e-12)
	assert.InDelta(t, 4.0, a.AvgReturn, 1e-12)

	assert.InDelta(t, rep.Insights.ValueAtRisk, rep.RiskMetrics.Portfolio.ValueAtRisk, 1e-12)
	assert.Contains(t, rep.RiskMetrics.Assets, "B")
	assert.InDelta(t, 10.0, rep.RiskMetrics.Assets["B"].ValueAtRisk, 1e-12)
}

func TestSummarize(t *testing.T) {
	entries := multiDay()
	s := Summarize(entries, aggregate.ByAsset(entries))

	assert.Equal(t, 4, s.TotalTrades)
	assert.InDelta(t, -4.0, s.TotalPnL, 1e-12)
	assert.InDelta(t, 50.0, s.WinRate, 1e-12)
	assert.InDelta(t, 4.0, s.AvgWin, 1e-12)
	assert.InDelta(t, -6.0, s.AvgLoss, 1e-12)
	assert.Equal(t, 5.0, s.MaxWin)
	assert.Equal(t, -10.0, s.MaxLoss)
	assert.Equal(t, "A", s.BestAsset)
	assert.Equal(t, "B", s.WorstAsset)
}
