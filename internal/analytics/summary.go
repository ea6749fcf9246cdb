package analytics

import (
	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/domain"
)

// Summary holds trade-level totals for a ledger.
type Summary struct {
	TotalTrades int     `json:"totalTrades"`
	TotalVolume float64 `json:"totalVolume"`
	TotalFees   float64 `json:"totalFees"`
	TotalPnL    float64 `json:"totalPnl"`
	WinRate     float64 `json:"winRate"` // Percent of entries with positive PnL
	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"` // Negative or zero
	MaxWin      float64 `json:"maxWin"`
	MaxLoss     float64 `json:"maxLoss"` // Most negative PnL, zero without losses
	BestAsset   string  `json:"bestAsset"`
	WorstAsset  string  `json:"worstAsset"`
}

// Summarize computes totals, win/loss averages and the best and worst asset.
func Summarize(entries []domain.LedgerEntry, assets map[string]domain.Bucket) Summary {
	s := Summary{TotalTrades: len(entries)}
	if len(entries) == 0 {
		return s
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, e := range entries {
		s.TotalVolume += e.Notional()
		s.TotalFees += e.Fee
		s.TotalPnL += e.RealizedPnL
		switch {
		case e.RealizedPnL > 0:
			wins++
			winSum += e.RealizedPnL
			if wins == 1 || e.RealizedPnL > s.MaxWin {
				s.MaxWin = e.RealizedPnL
			}
		case e.RealizedPnL < 0:
			losses++
			lossSum += e.RealizedPnL
			if losses == 1 || e.RealizedPnL < s.MaxLoss {
				s.MaxLoss = e.RealizedPnL
			}
		}
	}
	s.WinRate = float64(wins) / float64(len(entries)) * 100
	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossSum / float64(losses)
	}

	keys := aggregate.SortedKeys(assets)
	for i, k := range keys {
		pnl := assets[k].TotalPnL
		if i == 0 || pnl > assets[s.BestAsset].TotalPnL {
			s.BestAsset = k
		}
		if i == 0 || pnl < assets[s.WorstAsset].TotalPnL {
			s.WorstAsset = k
		}
	}
	return s
}
