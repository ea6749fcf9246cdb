package journal

import (
	"fmt"
	"strings"

	"journalAnalytics/internal/domain"
)

// RoundTripMode selects how a round-trip record becomes ledger entries.
type RoundTripMode int

const (
	// RoundTripLegs emits a synthetic buy and sell one millisecond apart.
	RoundTripLegs RoundTripMode = iota
	// RoundTripSingle emits one sell carrying the record's PnL.
	RoundTripSingle
)

// legGap separates the synthetic buy and sell legs, in milliseconds.
const legGap = 1

// ParseRoundTripMode converts "legs" or "single" into a RoundTripMode.
func ParseRoundTripMode(s string) (RoundTripMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legs":
		return RoundTripLegs, nil
	case "single":
		return RoundTripSingle, nil
	default:
		return RoundTripLegs, fmt.Errorf("unknown round-trip mode %q (want legs or single)", s)
	}
}

func (m RoundTripMode) String() string {
	if m == RoundTripSingle {
		return "single"
	}
	return "legs"
}

// NormalizeOptions tunes Normalize.
type NormalizeOptions struct {
	RoundTripMode RoundTripMode
	LegFee        float64 // Fee booked on each synthetic leg; PnL is taken from the record as is
}

// Normalize converts a parsed journal into unsorted ledger entries in input order.
// Standard trades carry zero realized PnL until replayed through a position book.
func Normalize(p Parsed, opts NormalizeOptions) ([]domain.LedgerEntry, error) {
	switch v := p.(type) {
	case StandardTrades:
		return normalizeStandard(v), nil
	case RoundTrips:
		return normalizeRoundTrips(v, opts), nil
	case Unrecognized:
		return nil, &FormatError{Keys: v.Keys}
	default:
		return nil, fmt.Errorf("normalize: unsupported parsed journal %T", p)
	}
}

func normalizeStandard(s StandardTrades) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, len(s.Trades))
	for i, t := range s.Trades {
		entries[i] = domain.LedgerEntry{
			Timestamp: s.Times[i].UnixMilli(),
			Asset:     t.Asset,
			Symbol:    t.Symbol,
			Side:      t.Side,
			Quantity:  t.Quantity,
			Price:     t.Price,
			Fee:       t.Fees,
		}
	}
	return entries
}

func normalizeRoundTrips(r RoundTrips, opts NormalizeOptions) []domain.LedgerEntry {
	perRecord := 2
	if opts.RoundTripMode == RoundTripSingle {
		perRecord = 1
	}
	entries := make([]domain.LedgerEntry, 0, len(r.Records)*perRecord)
	for _, rec := range r.Records {
		// Received may be 0 for a total loss; the sell leg stays to carry the PnL.
		sell := domain.LedgerEntry{
			Timestamp:   rec.Timestamp + legGap,
			Asset:       rec.TokenName,
			Side:        domain.Sell,
			Quantity:    rec.Received,
			Price:       1,
			Fee:         opts.LegFee,
			RealizedPnL: rec.PnL,
		}
		if opts.RoundTripMode == RoundTripSingle {
			sell.Timestamp = rec.Timestamp
			entries = append(entries, sell)
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			Timestamp: rec.Timestamp,
			Asset:     rec.TokenName,
			Side:      domain.Buy,
			Quantity:  rec.Invested,
			Price:     1,
			Fee:       opts.LegFee,
		}, sell)
	}
	return entries
}

// Load parses and normalizes a raw journal in one step.
func Load(data []byte, opts NormalizeOptions) (domain.InputFormat, []domain.LedgerEntry, error) {
	p, err := Parse(data)
	if err != nil {
		if p != nil {
			return p.Format(), nil, err
		}
		return domain.FormatUnknown, nil, err
	}
	entries, err := Normalize(p, opts)
	if err != nil {
		return p.Format(), nil, err
	}
	return p.Format(), entries, nil
}
