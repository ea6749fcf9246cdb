package domain

// RiskProfile is the set of portfolio statistics the risk heuristics read.
type RiskProfile struct {
	Volatility           float64
	MaxDrawdown          float64
	SharpeRatio          float64
	ValueAtRisk          float64
	ConcentrationRisk    float64
	DiversificationScore float64
	TotalVolume          float64
	RiskScore            float64 // Filled in once RiskScore has been computed
}

// RiskLevel is the band a risk score falls into.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// RiskFlags marks the configured diversification and concentration limits a profile breaks.
type RiskFlags struct {
	LowDiversification bool `json:"lowDiversification"`
	HighConcentration  bool `json:"highConcentration"`
}
