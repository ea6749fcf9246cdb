package domain

// AssetPosition is the running weighted-average-cost position for one asset.
// OpenQuantity never goes negative; short positions are not modeled.
type AssetPosition struct {
	Asset        string  `json:"asset"`
	OpenQuantity float64 `json:"openQuantity"`
	AverageCost  float64 `json:"averageCost"`
}

// IsFlat reports whether nothing is held.
func (p AssetPosition) IsFlat() bool {
	return p.OpenQuantity == 0
}
