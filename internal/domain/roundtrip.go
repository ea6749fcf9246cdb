package domain

// RoundTripEntry is an already-closed position reported as a single record.
// Amounts are in the platform's base asset (SOL for the reference platform).
type RoundTripEntry struct {
	TokenName string  `json:"tokenName"`
	PnL       float64 `json:"pnlInBaseAsset"`
	Invested  float64 `json:"baseInvested"`
	Received  float64 `json:"baseReceived"`
	Timestamp int64   `json:"timestamp"` // Epoch milliseconds
}

// StandardTrade is one element of a standard trade list as supplied by the user.
type StandardTrade struct {
	Date     string  `json:"date"`
	Asset    string  `json:"asset"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fees     float64 `json:"fees"`
	Symbol   string  `json:"symbol,omitempty"`
}
