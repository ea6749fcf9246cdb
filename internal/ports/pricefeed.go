package ports

import "context"

// PriceFeed provides the latest USD price of the journal's base asset.
type PriceFeed interface {
	// GetTickerPrice retrieves the last traded price for a symbol (e.g. "SOLUSDT").
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// Ping checks connectivity to the feed.
	Ping(ctx context.Context) error
}
