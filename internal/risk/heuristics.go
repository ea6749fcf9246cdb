package risk

import (
	"fmt"
	"math"
	"strconv"

	"journalAnalytics/internal/domain"
)

// Config holds the weights and thresholds of the risk heuristics.
// Volume ratios are fractions of total traded volume.
type Config struct {
	// Risk score weights
	VolatilityWeight    float64 `yaml:"volatility_weight"`
	DrawdownWeight      float64 `yaml:"drawdown_weight"`
	ConcentrationWeight float64 `yaml:"concentration_weight"`
	MaxScore            float64 `yaml:"max_score"`

	// Recommendation triggers
	MinDiversification  float64 `yaml:"min_diversification"`
	HighRiskScore       float64 `yaml:"high_risk_score"`
	DrawdownVolumeRatio float64 `yaml:"drawdown_volume_ratio"`
	MinSharpe           float64 `yaml:"min_sharpe"`

	// Warning triggers
	VaRVolumeRatio            float64 `yaml:"var_volume_ratio"`
	SevereDrawdownVolumeRatio float64 `yaml:"severe_drawdown_volume_ratio"`
	MaxConcentration          float64 `yaml:"max_concentration"`
	VolatilityVolumeRatio     float64 `yaml:"volatility_volume_ratio"`

	// Trend rule over monthly PnL
	TrendEnabled        bool    `yaml:"trend_enabled"`
	TrendLookbackMonths int     `yaml:"trend_lookback_months"`
	TrendMinMonths      int     `yaml:"trend_min_months"`
	TrendThreshold      float64 `yaml:"trend_threshold"`

	// Risk level bands used by reports
	HighLevel     float64 `yaml:"high_level"`
	ModerateLevel float64 `yaml:"moderate_level"`
}

// DefaultConfig returns the stock heuristic settings.
func DefaultConfig() Config {
	return Config{
		VolatilityWeight:    10,
		DrawdownWeight:      5,
		ConcentrationWeight: 2,
		MaxScore:            100,

		MinDiversification:  50,
		HighRiskScore:       70,
		DrawdownVolumeRatio: 0.2,
		MinSharpe:           1,

		VaRVolumeRatio:            0.1,
		SevereDrawdownVolumeRatio: 0.3,
		MaxConcentration:          80,
		VolatilityVolumeRatio:     0.05,

		TrendEnabled:        true,
		TrendLookbackMonths: 3,
		TrendMinMonths:      2,
		TrendThreshold:      0.1,

		HighLevel:     70,
		ModerateLevel: 40,
	}
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	if c.VolatilityWeight < 0 || c.DrawdownWeight < 0 || c.ConcentrationWeight < 0 {
		return fmt.Errorf("risk score weights cannot be negative")
	}
	if c.MaxScore <= 0 {
		return fmt.Errorf("max score must be positive, got %v", c.MaxScore)
	}
	if c.TrendEnabled && (c.TrendLookbackMonths <= 0 || c.TrendMinMonths <= 0) {
		return fmt.Errorf("trend lookback and minimum months must be positive")
	}
	if c.ModerateLevel > c.HighLevel {
		return fmt.Errorf("moderate level %v above high level %v", c.ModerateLevel, c.HighLevel)
	}
	return nil
}

// Heuristics implements ports.RiskHeuristics with threshold rules.
type Heuristics struct {
	config Config
}

// NewHeuristics creates a heuristics instance after validating cfg.
func NewHeuristics(cfg Config) (*Heuristics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk heuristics config: %w", err)
	}
	return &Heuristics{config: cfg}, nil
}

// Config returns the settings in use.
func (h *Heuristics) Config() Config {
	return h.config
}

// RiskScore weighs volatility, drawdown and concentration, capped at MaxScore.
func (h *Heuristics) RiskScore(p domain.RiskProfile) float64 {
	score := p.Volatility*h.config.VolatilityWeight +
		p.MaxDrawdown*h.config.DrawdownWeight +
		p.ConcentrationRisk*h.config.ConcentrationWeight
	return math.Min(h.config.MaxScore, score)
}

// Trend averages the last TrendLookbackMonths of monthly PnL.
func (h *Heuristics) Trend(monthlyPnL []float64) domain.TrendDirection {
	if !h.config.TrendEnabled || len(monthlyPnL) < h.config.TrendMinMonths {
		return domain.TrendNeutral
	}
	recent := monthlyPnL
	if len(recent) > h.config.TrendLookbackMonths {
		recent = recent[len(recent)-h.config.TrendLookbackMonths:]
	}
	var sum float64
	for _, v := range recent {
		sum += v
	}
	avg := sum / float64(len(recent))
	switch {
	case avg > h.config.TrendThreshold:
		return domain.TrendBullish
	case avg < -h.config.TrendThreshold:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

// Recommendations lists suggested changes to trading behaviour.
func (h *Heuristics) Recommendations(p domain.RiskProfile) []string {
	recs := make([]string, 0)
	if p.DiversificationScore < h.config.MinDiversification {
		recs = append(recs, "Consider diversifying your portfolio across more assets")
	}
	if p.RiskScore > h.config.HighRiskScore {
		recs = append(recs, "Reduce position sizes to lower overall risk")
	}
	if p.MaxDrawdown > p.TotalVolume*h.config.DrawdownVolumeRatio {
		recs = append(recs, "Use stop-losses to limit drawdowns")
	}
	if p.SharpeRatio < h.config.MinSharpe {
		recs = append(recs, "Improve the risk/reward ratio of your trades")
	}
	return recs
}

// Warnings lists risk conditions that need attention.
func (h *Heuristics) Warnings(p domain.RiskProfile) []string {
	warnings := make([]string, 0)
	if p.ValueAtRisk > p.TotalVolume*h.config.VaRVolumeRatio {
		warnings = append(warnings, "High loss risk: value at risk exceeds "+percent(h.config.VaRVolumeRatio)+" of traded volume")
	}
	if p.MaxDrawdown > p.TotalVolume*h.config.SevereDrawdownVolumeRatio {
		warnings = append(warnings, "Very large maximum drawdown detected")
	}
	if p.ConcentrationRisk > h.config.MaxConcentration {
		warnings = append(warnings, "Excessive concentration in one or a few assets")
	}
	if p.Volatility > p.TotalVolume*h.config.VolatilityVolumeRatio {
		warnings = append(warnings, "High portfolio volatility")
	}
	return warnings
}

// Level maps a risk score onto LOW, MODERATE or HIGH.
func (h *Heuristics) Level(score float64) domain.RiskLevel {
	switch {
	case score > h.config.HighLevel:
		return domain.RiskHigh
	case score > h.config.ModerateLevel:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

// Flags compares the profile against MinDiversification and MaxConcentration.
func (h *Heuristics) Flags(p domain.RiskProfile) domain.RiskFlags {
	return domain.RiskFlags{
		LowDiversification: p.DiversificationScore < h.config.MinDiversification,
		HighConcentration:  p.ConcentrationRisk > h.config.MaxConcentration,
	}
}

// percent renders a volume ratio such as 0.1 as "10%", to at most two decimals.
func percent(ratio float64) string {
	return strconv.FormatFloat(math.Round(ratio*1e4)/100, 'f', -1, 64) + "%"
}
