package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"journalAnalytics/internal/domain"
)

// Parsed is the result of parsing a journal: StandardTrades, RoundTrips or Unrecognized.
type Parsed interface {
	Format() domain.InputFormat
	Len() int
	parsed()
}

// StandardTrades is a validated standard trade list with dates already resolved.
type StandardTrades struct {
	Trades []domain.StandardTrade
	Times  []time.Time // Times[i] is the parsed Trades[i].Date
}

// RoundTrips is a validated list of round-trip records.
type RoundTrips struct {
	Records []domain.RoundTripEntry
}

// Unrecognized carries the first element's keys of a journal no schema matched.
type Unrecognized struct {
	Keys []string
}

func (StandardTrades) Format() domain.InputFormat { return domain.FormatStandardTrades }
func (RoundTrips) Format() domain.InputFormat     { return domain.FormatRoundTrip }
func (Unrecognized) Format() domain.InputFormat   { return domain.FormatUnknown }

func (s StandardTrades) Len() int { return len(s.Trades) }
func (r RoundTrips) Len() int     { return len(r.Records) }
func (Unrecognized) Len() int     { return 0 }

func (StandardTrades) parsed() {}
func (RoundTrips) parsed()     {}
func (Unrecognized) parsed()   {}

// dateLayouts are tried in order when reading a standard trade's date.
// A space may stand in for the T separator.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

const (
	// maxAmount bounds every amount and notional so that sums and squares of PnL stay finite.
	maxAmount = 1e100
	// maxTimestamp is 9999-12-31T23:59:59.999Z in epoch milliseconds.
	maxTimestamp = 253402300799999
)

// Parse detects the journal shape and validates every element against it.
// A shape no schema matches is returned as Unrecognized together with a *FormatError.
func Parse(data []byte) (Parsed, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return nil, err
	}
	objs := make([]object, len(elems))
	for i, raw := range elems {
		obj, err := decodeObject(raw, i)
		if err != nil {
			return nil, err
		}
		objs[i] = obj
	}

	switch classify(objs[0]) {
	case domain.FormatStandardTrades:
		return parseStandard(objs)
	case domain.FormatRoundTrip:
		return parseRoundTrips(objs)
	default:
		keys := objs[0].sortedKeys()
		return Unrecognized{Keys: keys}, &FormatError{Keys: keys}
	}
}

func parseStandard(objs []object) (Parsed, error) {
	out := StandardTrades{
		Trades: make([]domain.StandardTrade, 0, len(objs)),
		Times:  make([]time.Time, 0, len(objs)),
	}
	var problems []string
	for i, obj := range objs {
		v := validator{index: i}

		dateStr := v.requireString(obj, "date")
		var ts time.Time
		if dateStr != "" {
			var ok bool
			if ts, ok = parseDate(dateStr); !ok {
				v.addf("date %q is not an ISO-8601 timestamp", dateStr)
			}
		}
		asset := v.requireString(obj, "asset")
		side := domain.Side(strings.ToLower(v.requireString(obj, "side")))
		if side != "" && side != domain.Buy && side != domain.Sell {
			v.addf("side must be \"buy\" or \"sell\", got %q", side)
		}
		qty := v.requirePositive(obj, "quantity")
		price := v.requirePositive(obj, "price")
		fees := v.optionalNonNegative(obj, "fees")
		symbol := v.optionalString(obj, "symbol")
		v.checkAmount("quantity * price", qty*price)
		v.checkAmount("fees", fees)

		if len(v.problems) > 0 {
			problems = append(problems, v.problems...)
			continue
		}
		out.Trades = append(out.Trades, domain.StandardTrade{
			Date:     dateStr,
			Asset:    asset,
			Side:     side,
			Quantity: qty,
			Price:    price,
			Fees:     fees,
			Symbol:   symbol,
		})
		out.Times = append(out.Times, ts)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

func parseRoundTrips(objs []object) (Parsed, error) {
	out := RoundTrips{Records: make([]domain.RoundTripEntry, 0, len(objs))}
	var problems []string
	for i, obj := range objs {
		v := validator{index: i}

		pnl := v.requireNumber(obj, pnlKeys...)
		invested := v.requirePositive(obj, investedKeys...)
		received := v.requireNonNegative(obj, receivedKeys...)
		ts := v.requireTimestamp(obj, "timestamp")
		token := v.requireString(obj, "tokenName")
		v.checkAmount(obj.keyOf(pnlKeys...), pnl)
		v.checkAmount(obj.keyOf(investedKeys...), invested)
		v.checkAmount(obj.keyOf(receivedKeys...), received)

		if len(v.problems) > 0 {
			problems = append(problems, v.problems...)
			continue
		}
		out.Records = append(out.Records, domain.RoundTripEntry{
			TokenName: token,
			PnL:       pnl,
			Invested:  invested,
			Received:  received,
			Timestamp: ts,
		})
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// validator collects the problems of one element.
type validator struct {
	index    int
	problems []string
}

func (v *validator) addf(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf("element %d: ", v.index)+fmt.Sprintf(format, args...))
}

func (v *validator) requireString(obj object, key string) string {
	raw, ok := obj[key]
	if !ok {
		v.addf("missing %s", key)
		return ""
	}
	s, ok := decodeString(raw)
	if !ok {
		v.addf("%s must be a string", key)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		v.addf("%s must not be empty", key)
		return ""
	}
	return s
}

func (v *validator) optionalString(obj object, key string) string {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return ""
	}
	s, ok := decodeString(raw)
	if !ok {
		v.addf("%s must be a string", key)
	}
	return s
}

func (v *validator) requireNumber(obj object, keys ...string) float64 {
	raw, key, ok := obj.lookup(keys...)
	if !ok {
		v.addf("missing %s", key)
		return 0
	}
	n, ok := decodeNumber(raw)
	if !ok {
		v.addf("%s must be a number", key)
		return 0
	}
	return n
}

func (v *validator) requirePositive(obj object, keys ...string) float64 {
	before := len(v.problems)
	n := v.requireNumber(obj, keys...)
	if len(v.problems) == before && n <= 0 {
		_, key, _ := obj.lookup(keys...)
		v.addf("%s must be > 0, got %g", key, n)
	}
	return n
}

func (v *validator) requireNonNegative(obj object, keys ...string) float64 {
	before := len(v.problems)
	n := v.requireNumber(obj, keys...)
	if len(v.problems) == before && n < 0 {
		_, key, _ := obj.lookup(keys...)
		v.addf("%s must be >= 0, got %g", key, n)
	}
	return n
}

// requireTimestamp reads a positive whole number of epoch milliseconds.
func (v *validator) requireTimestamp(obj object, key string) int64 {
	before := len(v.problems)
	n := v.requirePositive(obj, key)
	if len(v.problems) > before {
		return 0
	}
	if n != math.Trunc(n) {
		v.addf("%s must be whole milliseconds, got %g", key, n)
		return 0
	}
	if n > maxTimestamp {
		v.addf("%s %g is past year 9999", key, n)
		return 0
	}
	return int64(n)
}

// checkAmount rejects magnitudes above maxAmount.
func (v *validator) checkAmount(name string, x float64) {
	if math.IsInf(x, 0) || math.Abs(x) > maxAmount {
		v.addf("%s is out of range (%g)", name, x)
	}
}

func (v *validator) optionalNonNegative(obj object, key string) float64 {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return 0
	}
	n, ok := decodeNumber(raw)
	if !ok {
		v.addf("%s must be a number", key)
		return 0
	}
	if n < 0 {
		v.addf("%s must be >= 0, got %g", key, n)
	}
	return n
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
