package domain

// Side represents the direction of a ledger entry (buy or sell).
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// InputFormat identifies which journal shape a payload was classified as.
type InputFormat string

const (
	FormatStandardTrades InputFormat = "standard-trades"
	FormatRoundTrip      InputFormat = "round-trip"
	FormatUnknown        InputFormat = "unknown"
)

// Denomination is the unit monetary values are reported in.
type Denomination string

const (
	DenomSOL   Denomination = "SOL"
	DenomUSD   Denomination = "USD"
	DenomQuote Denomination = "QUOTE" // Quote currency of a standard trade list
)

// Decimals returns the rendering precision used for values in this unit.
func (d Denomination) Decimals() int32 {
	switch d {
	case DenomSOL:
		return 4
	default:
		return 2
	}
}

// TrendDirection is the coarse direction reported by the trend heuristic.
type TrendDirection string

const (
	TrendBullish TrendDirection = "bullish"
	TrendBearish TrendDirection = "bearish"
	TrendNeutral TrendDirection = "neutral"
)
