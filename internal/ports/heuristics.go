package ports

import "journalAnalytics/internal/domain"

// RiskHeuristics turns portfolio statistics into product-level judgements.
// The rules are heuristics, not statistics, and can be swapped independently of them.
type RiskHeuristics interface {
	// RiskScore returns a 0-100 score, higher meaning riskier.
	RiskScore(p domain.RiskProfile) float64
	// Trend classifies the direction of the monthly PnL series (oldest first).
	Trend(monthlyPnL []float64) domain.TrendDirection
	// Recommendations returns suggestions triggered by the profile.
	Recommendations(p domain.RiskProfile) []string
	// Warnings returns risk warnings triggered by the profile.
	Warnings(p domain.RiskProfile) []string
	// Level maps a risk score onto a band.
	Level(score float64) domain.RiskLevel
	// Flags reports the diversification and concentration limits the profile breaks.
	Flags(p domain.RiskProfile) domain.RiskFlags
}
