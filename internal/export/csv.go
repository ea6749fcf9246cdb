package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"journalAnalytics/internal/analytics"
)

type csvSection struct {
	section Section
	title   string
	rows    func(r *analytics.Report) [][]string
}

var csvSections = []csvSection{
	{SectionSummary, "SUMMARY", summaryRows},
	{SectionInsights, "ADVANCED INSIGHTS", insightRows},
	{SectionMonthly, "MONTHLY PERFORMANCE", monthlyRows},
	{SectionAssets, "ASSET PERFORMANCE", assetRows},
	{SectionRisk, "RISK METRICS", riskRows},
	{SectionTrades, "TRADES", tradeRows},
}

// WriteCSV writes one section of the report, or every section under a
// "=== TITLE ===" line when section is SectionAll.
func WriteCSV(w io.Writer, r *analytics.Report, section Section) error {
	if section == "" {
		section = SectionAll
	}
	cw := csv.NewWriter(w)

	if section != SectionAll {
		for _, s := range csvSections {
			if s.section == section {
				if err := cw.WriteAll(s.rows(r)); err != nil {
					return fmt.Errorf("failed to write %s section: %w", section, err)
				}
				return nil
			}
		}
		return fmt.Errorf("export: unknown section %q", section)
	}

	for _, s := range csvSections {
		if err := cw.Write([]string{"=== " + s.title + " ==="}); err != nil {
			return fmt.Errorf("failed to write %s title: %w", s.section, err)
		}
		if err := cw.WriteAll(s.rows(r)); err != nil {
			return fmt.Errorf("failed to write %s section: %w", s.section, err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func tradeRows(r *analytics.Report) [][]string {
	rows := [][]string{{"Date", "Asset", "Side", "Quantity", "Price", "Total", "Fees", "PnL", "Symbol"}}
	for _, e := range r.Entries {
		rows = append(rows, []string{
			e.Time().UTC().Format(time.RFC3339),
			e.Asset,
			string(e.Side),
			formatFloat(e.Quantity),
			formatFloat(e.Price),
			formatFloat(e.Notional()),
			formatFloat(e.Fee),
			formatFloat(e.RealizedPnL),
			e.DisplaySymbol(),
		})
	}
	return rows
}

func summaryRows(r *analytics.Report) [][]string {
	s := r.Summary
	m := r.Decimals()
	return [][]string{
		{"Metric", "Value"},
		{"Total Trades", strconv.Itoa(s.TotalTrades)},
		{"Total Volume", fixed(s.TotalVolume, m)},
		{"Total Fees", fixed(s.TotalFees, m)},
		{"Total PnL", fixed(s.TotalPnL, m)},
		{"Win Rate (%)", fixed(s.WinRate, 2)},
		{"Average Win", fixed(s.AvgWin, m)},
		{"Average Loss", fixed(s.AvgLoss, m)},
		{"Max Win", fixed(s.MaxWin, m)},
		{"Max Loss", fixed(s.MaxLoss, m)},
		{"Best Asset", s.BestAsset},
		{"Worst Asset", s.WorstAsset},
	}
}

func insightRows(r *analytics.Report) [][]string {
	in := r.Insights
	m := r.Decimals()
	rows := [][]string{
		{"Advanced Metric", "Value"},
		{"Sharpe Ratio", fixed(in.SharpeRatio, ratioPlaces)},
		{"Max Drawdown", fixed(in.MaxDrawdown, m)},
		{"Volatility", fixed(in.Volatility, ratioPlaces)},
		{"Win Streak", strconv.Itoa(in.WinStreak)},
		{"Loss Streak", strconv.Itoa(in.LossStreak)},
		{"Best Day", in.BestTradingDay},
		{"Worst Day", in.WorstTradingDay},
		{"Average Trade Duration (days)", fixed(in.AverageTradeDuration, 2)},
		{"Risk Score", fixed(in.RiskScore, 2)},
		{"Risk Level", string(in.RiskLevel)},
		{"Diversification Score", fixed(in.DiversificationScore, 2)},
		{"Concentration Risk", fixed(in.ConcentrationRisk, 2)},
		{"Trend Direction", string(in.TrendDirection)},
		{"Momentum Score", fixed(in.MomentumScore, ratioPlaces)},
		{"Volatility Forecast", fixed(in.VolatilityForecast, ratioPlaces)},
		{"Calmar Ratio", fixed(in.CalmarRatio, ratioPlaces)},
		{"Sortino Ratio", fixed(in.SortinoRatio, ratioPlaces)},
		{varLabel(in.Confidence), fixed(in.ValueAtRisk, m)},
		{"Expected Shortfall", fixed(in.ExpectedShortfall, m)},
		{"", ""},
		{"Recommendations", ""},
	}
	for i, rec := range in.Recommendations {
		rows = append(rows, []string{fmt.Sprintf("Recommendation %d", i+1), rec})
	}
	rows = append(rows, []string{"", ""}, []string{"Risk Warnings", ""})
	for i, warn := range in.RiskWarnings {
		rows = append(rows, []string{fmt.Sprintf("Warning %d", i+1), warn})
	}
	return rows
}

func monthlyRows(r *analytics.Report) [][]string {
	m := r.Decimals()
	rows := [][]string{{"Month", "Trades", "PnL", "Volume", "Win Rate (%)", "Sharpe Ratio", "Max Drawdown"}}
	for _, p := range r.MonthlyPerformance {
		rows = append(rows, []string{
			p.Month,
			strconv.Itoa(p.Trades),
			fixed(p.PnL, m),
			fixed(p.Volume, m),
			fixed(p.WinRate, 2),
			fixed(p.SharpeRatio, ratioPlaces),
			fixed(p.MaxDrawdown, m),
		})
	}
	return rows
}

func assetRows(r *analytics.Report) [][]string {
	m := r.Decimals()
	rows := [][]string{{"Asset", "Total Trades", "Total PnL", "Win Rate (%)", "Average Return", "Volatility", "Sharpe Ratio", "Max Drawdown", "Correlation"}}
	for _, a := range r.AssetPerformance {
		rows = append(rows, []string{
			a.Asset,
			strconv.Itoa(a.TotalTrades),
			fixed(a.TotalPnL, m),
			fixed(a.WinRate, 2),
			fixed(a.AvgReturn, ratioPlaces),
			fixed(a.Volatility, ratioPlaces),
			fixed(a.SharpeRatio, ratioPlaces),
			fixed(a.MaxDrawdown, m),
			fixed(a.Correlation, ratioPlaces),
		})
	}
	return rows
}

func riskRows(r *analytics.Report) [][]string {
	m := r.Decimals()
	p := r.RiskMetrics.Portfolio
	label := varLabel(r.RiskMetrics.Confidence)
	rows := [][]string{
		{"Risk Metric", "Value"},
		{"", ""},
		{"PORTFOLIO", ""},
		{label, fixed(p.ValueAtRisk, m)},
		{"Expected Shortfall", fixed(p.ExpectedShortfall, m)},
		{"Max Drawdown", fixed(p.MaxDrawdown, m)},
		{"Volatility", fixed(p.Volatility, ratioPlaces)},
		{"Sharpe Ratio", fixed(p.SharpeRatio, ratioPlaces)},
		{"", ""},
		{"ASSETS", ""},
		{"Asset", label, "Volatility", "Beta"},
	}
	assets := make([]string, 0, len(r.RiskMetrics.Assets))
	for a := range r.RiskMetrics.Assets {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		ar := r.RiskMetrics.Assets[a]
		rows = append(rows, []string{a, fixed(ar.ValueAtRisk, m), fixed(ar.Volatility, ratioPlaces), fixed(ar.Beta, ratioPlaces)})
	}
	return rows
}

// varLabel names the VaR row after its confidence, e.g. "VaR 95%".
func varLabel(confidence float64) string {
	return "VaR " + decimal.NewFromFloat(confidence).Shift(2).String() + "%"
}
