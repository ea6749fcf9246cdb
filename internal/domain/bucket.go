package domain

// Bucket summarizes the ledger entries sharing one key (day, month or asset).
type Bucket struct {
	Key           string  `json:"key"`
	TradeCount    int     `json:"tradeCount"`
	WinningTrades int     `json:"winningTrades"`
	TotalVolume   float64 `json:"totalVolume"`
	TotalPnL      float64 `json:"totalPnl"`
	TotalQuantity float64 `json:"totalQuantity"`
	AvgPrice      float64 `json:"avgPrice"`
	WinRate       float64 `json:"winRate"` // Percent, 0 when empty
}
