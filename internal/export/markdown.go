package export

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"journalAnalytics/internal/analytics"
	"journalAnalytics/internal/domain"
)

var markdownTemplate = template.Must(template.New("report").Funcs(markdownFuncs(2, 2, "")).Parse(`# TRADE JOURNAL ANALYSIS REPORT

## EXECUTIVE SUMMARY

- **Total PnL**: {{money .R.Summary.TotalPnL}}
- **Total Volume**: {{money .R.Summary.TotalVolume}}
- **Trades**: {{.R.Summary.TotalTrades}}
- **Win Rate**: {{one .R.Summary.WinRate}}%
- **Sharpe Ratio**: {{ratio .R.Insights.SharpeRatio}}
- **Maximum Drawdown**: {{money .R.Insights.MaxDrawdown}}

## PERFORMANCE

### Key Metrics
- **Average Win**: {{money .R.Summary.AvgWin}}
- **Average Loss**: {{money .R.Summary.AvgLoss}}
- **Best Trade**: {{money .R.Summary.MaxWin}}
- **Worst Trade**: {{money .R.Summary.MaxLoss}}

### Sequences
- **Win Streak**: {{.R.Insights.WinStreak}} trades
- **Loss Streak**: {{.R.Insights.LossStreak}} trades

## RISK ANALYSIS

### Risk Score: {{one .R.Insights.RiskScore}}/100
{{.R.Insights.RiskLevel}} RISK

### Diversification: {{one .R.Insights.DiversificationScore}}/100
{{if .R.Insights.Flags.LowDiversification}}Insufficient diversification{{else}}Good diversification{{end}}

### Concentration: {{one .R.Insights.ConcentrationRisk}}%
{{if .R.Insights.Flags.HighConcentration}}Excessive concentration{{else}}Acceptable concentration{{end}}

## TRENDS

- **Direction**: {{.Direction}}
- **Momentum**: {{if gt .R.Insights.MomentumScore 0.0}}Positive{{else}}Negative{{end}}
- **Forecasted Volatility**: {{four .R.Insights.VolatilityForecast}}

## RECOMMENDATIONS

{{range .R.Insights.Recommendations}}- {{.}}
{{else}}- None
{{end}}
## WARNINGS

{{range .R.Insights.RiskWarnings}}- {{.}}
{{else}}- None
{{end}}
## ADVANCED METRICS

- **Calmar Ratio**: {{ratio .R.Insights.CalmarRatio}}
- **Sortino Ratio**: {{ratio .R.Insights.SortinoRatio}}
- **{{.VaRLabel}}**: {{money .R.Insights.ValueAtRisk}}
- **Expected Shortfall**: {{money .R.Insights.ExpectedShortfall}}
{{if .R.OpenPositions}}
## OPEN POSITIONS

| Asset | Quantity | Average Cost |
|---|---|---|
{{range .R.OpenPositions}}| {{.Asset}} | {{qty .OpenQuantity}} | {{price .AverageCost}} |
{{end}}{{end}}{{if .R.OverSells}}
Sells exceeding the open position: {{.R.OverSells}} (excess quantity excluded from PnL)
{{end}}
---
*Report generated on {{.Generated}} by Journal Analytics*
`))

type markdownView struct {
	R         *analytics.Report
	Direction string
	VaRLabel  string
	Generated string
}

// WriteMarkdown renders the human readable report.
func WriteMarkdown(w io.Writer, r *analytics.Report) error {
	places := r.Decimals()
	if places > 3 {
		places = 3
	}

	tmpl, err := markdownTemplate.Clone()
	if err != nil {
		return err
	}
	tmpl.Funcs(markdownFuncs(places, r.Decimals(), unitLabel(r.Denomination)))

	view := markdownView{
		R:         r,
		Direction: directionLabel(r.Insights.TrendDirection),
		VaRLabel:  varLabel(r.Insights.Confidence),
		Generated: r.GeneratedAt.Format("January 2, 2006"),
	}
	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render markdown report: %w", err)
	}
	return nil
}

// markdownFuncs formats money with moneyPlaces and the unit suffix, and prices with pricePlaces.
func markdownFuncs(moneyPlaces, pricePlaces int32, unit string) template.FuncMap {
	return template.FuncMap{
		"money": func(x float64) string { return fixed(x, moneyPlaces) + unit },
		"price": func(x float64) string { return fixed(x, pricePlaces) },
		"qty":   formatFloat,
		"ratio": func(x float64) string { return fixed(x, 3) },
		"four":  func(x float64) string { return fixed(x, 4) },
		"one":   func(x float64) string { return fixed(x, 1) },
	}
}

func directionLabel(d domain.TrendDirection) string {
	if d == "" {
		d = domain.TrendNeutral
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}
