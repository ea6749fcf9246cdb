package domain

import "time"

// AnalysisRun is the stored record of one analyze action.
type AnalysisRun struct {
	ID           string       // UUID assigned when the run is saved
	CreatedAt    time.Time    // When the analysis was performed
	Format       InputFormat  // Detected journal shape
	Denomination Denomination // Unit of the reported values
	RawInput     string       // The journal JSON as supplied
	TradeCount   int          // Number of ledger entries produced
	TotalPnL     float64      // Sum of realized PnL
	ReportJSON   string       // Full report as pretty JSON
}
