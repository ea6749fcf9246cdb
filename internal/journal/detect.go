package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"journalAnalytics/internal/domain"
)

// Accepted spellings for the round-trip fields. The reference platform reports in SOL.
var (
	pnlKeys      = []string{"pnlInBaseAsset", "pnlSol"}
	investedKeys = []string{"baseInvested", "solInvested"}
	receivedKeys = []string{"baseReceived", "solReceived"}
)

var standardKeys = []string{"date", "asset", "side", "quantity", "price"}

// object is a decoded JSON object with its values left raw.
type object map[string]json.RawMessage

// Detect classifies a raw journal by the keys of its first element.
// Only the first element is inspected; Parse validates the rest against the result.
func Detect(data []byte) (domain.InputFormat, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return domain.FormatUnknown, err
	}
	first, err := decodeObject(elems[0], 0)
	if err != nil {
		return domain.FormatUnknown, err
	}
	return classify(first), nil
}

func classify(first object) domain.InputFormat {
	if first.hasAll(standardKeys...) {
		return domain.FormatStandardTrades
	}
	if first.hasAny(pnlKeys...) && first.hasAny(investedKeys...) && first.hasAll("timestamp", "tokenName") {
		return domain.FormatRoundTrip
	}
	return domain.FormatUnknown
}

func decodeArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ParseError{Reason: "input is empty"}
	}
	if !json.Valid(trimmed) {
		var v interface{}
		err := json.Unmarshal(trimmed, &v)
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if trimmed[0] != '[' {
		return nil, &ParseError{Reason: "top-level value must be an array"}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &ParseError{Reason: "invalid JSON array", Err: err}
	}
	if len(elems) == 0 {
		return nil, &ParseError{Reason: "array is empty"}
	}
	return elems, nil
}

func decodeObject(raw json.RawMessage, index int) (object, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Reason: fmt.Sprintf("element %d is not an object", index)}
	}
	var obj object
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("element %d is not an object", index), Err: err}
	}
	return obj, nil
}

func (o object) hasAll(keys ...string) bool {
	for _, k := range keys {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

func (o object) hasAny(keys ...string) bool {
	_, _, ok := o.lookup(keys...)
	return ok
}

// lookup returns the first present key among aliases.
func (o object) lookup(keys ...string) (json.RawMessage, string, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok {
			return v, k, true
		}
	}
	return nil, keys[0], false
}

// keyOf returns the alias of keys present in o, or the first one.
func (o object) keyOf(keys ...string) string {
	_, k, _ := o.lookup(keys...)
	return k
}

func (o object) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
