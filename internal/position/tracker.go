package position

import (
	"fmt"
	"sort"
	"strings"

	"journalAnalytics/internal/domain"
)

// ReplayOrder decides the order entries are fed through the book.
type ReplayOrder int

const (
	// ReplayByTimestamp stable-sorts entries by timestamp before replay.
	ReplayByTimestamp ReplayOrder = iota
	// ReplayInputOrder replays entries exactly as supplied.
	ReplayInputOrder
)

func (o ReplayOrder) String() string {
	if o == ReplayInputOrder {
		return "input"
	}
	return "timestamp"
}

// ParseReplayOrder converts "timestamp" or "input" into a ReplayOrder.
func ParseReplayOrder(s string) (ReplayOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "timestamp":
		return ReplayByTimestamp, nil
	case "input":
		return ReplayInputOrder, nil
	default:
		return ReplayByTimestamp, fmt.Errorf("unknown replay order %q (want timestamp or input)", s)
	}
}

// Fill is the outcome of applying one entry to a position.
type Fill struct {
	RealizedPnL float64
	Excess      float64 // Quantity sold beyond what was held, excluded from PnL
}

// Step applies one entry to pos and returns the next position.
// Sells larger than the open quantity close the position and report the excess.
func Step(pos domain.AssetPosition, e domain.LedgerEntry) (domain.AssetPosition, Fill) {
	next := pos
	next.Asset = e.Asset

	switch e.Side {
	case domain.Buy:
		newQty := pos.OpenQuantity + e.Quantity
		if pos.OpenQuantity == 0 {
			next.AverageCost = e.Price
		} else {
			next.AverageCost = (pos.OpenQuantity*pos.AverageCost + e.Quantity*e.Price) / newQty
		}
		next.OpenQuantity = newQty
		return next, Fill{}

	case domain.Sell:
		if pos.OpenQuantity >= e.Quantity {
			next.OpenQuantity = pos.OpenQuantity - e.Quantity
			return next, Fill{RealizedPnL: (e.Price-pos.AverageCost)*e.Quantity - e.Fee}
		}
		fill := Fill{
			RealizedPnL: (e.Price-pos.AverageCost)*pos.OpenQuantity - e.Fee,
			Excess:      e.Quantity - pos.OpenQuantity,
		}
		next.OpenQuantity = 0
		next.AverageCost = 0
		return next, fill
	}
	return next, Fill{}
}

// Book is an immutable snapshot of positions keyed by asset.
type Book map[string]domain.AssetPosition

// Get returns the position for asset, flat if unseen.
func (b Book) Get(asset string) domain.AssetPosition {
	if p, ok := b[asset]; ok {
		return p
	}
	return domain.AssetPosition{Asset: asset}
}

// With returns a copy of the book with asset set to pos.
func (b Book) With(pos domain.AssetPosition) Book {
	next := make(Book, len(b)+1)
	for k, v := range b {
		next[k] = v
	}
	next[pos.Asset] = pos
	return next
}

// Assets returns the book's assets in sorted order.
func (b Book) Assets() []string {
	assets := make([]string, 0, len(b))
	for a := range b {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// Open returns the non-flat positions in asset order.
func (b Book) Open() []domain.AssetPosition {
	open := make([]domain.AssetPosition, 0, len(b))
	for _, a := range b.Assets() {
		if pos := b[a]; !pos.IsFlat() {
			open = append(open, pos)
		}
	}
	return open
}

// OverSell records a sell that exceeded the held quantity.
type OverSell struct {
	Index     int    // Position of the entry in the replayed sequence
	Timestamp int64  // Entry timestamp, epoch ms
	Asset     string // Asset sold
	Requested float64
	Held      float64
	Excess    float64
}

// Result is the outcome of a replay.
type Result struct {
	Entries   []domain.LedgerEntry // Entries in replay order with realized PnL filled in
	Book      Book                 // Final positions
	OverSells []OverSell
}

// Replay folds entries through an empty book in the requested order.
// The input slice is left untouched.
func Replay(entries []domain.LedgerEntry, order ReplayOrder) Result {
	ordered := make([]domain.LedgerEntry, len(entries))
	copy(ordered, entries)
	if order == ReplayByTimestamp {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Timestamp < ordered[j].Timestamp
		})
	}

	res := Result{Entries: ordered, Book: Book{}}
	for i, e := range ordered {
		prev := res.Book.Get(e.Asset)
		next, fill := Step(prev, e)
		res.Book = res.Book.With(next)
		ordered[i].RealizedPnL = fill.RealizedPnL
		if fill.Excess > 0 {
			res.OverSells = append(res.OverSells, OverSell{
				Index:     i,
				Timestamp: e.Timestamp,
				Asset:     e.Asset,
				Requested: e.Quantity,
				Held:      prev.OpenQuantity,
				Excess:    fill.Excess,
			})
		}
	}
	return res
}
