// Package shipping resolves the flat shipping fee once per checkout session
// and applies the free-shipping threshold to it.
package shipping

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"storefront/internal/common/money"
)

// FeeKind tags which shape the shipping config response had.
type FeeKind int

const (
	FeeMissing FeeKind = iota
	FeeNumber
	FeeText
	FeeObject
)

// objectKeys are probed in order when the fee arrives as an object.
var objectKeys = []string{"amount", "value", "shippingFee", "fee"}

// FeeValue is the shipping config response: a number, a numeric string, or
// an object carrying the number under one of several keys.
type FeeValue struct {
	Kind   FeeKind
	Number float64
	Text   string
	Object map[string]json.RawMessage
}

// ParseFeeValue decodes a raw response into its tagged form. Anything that
// is not a number, string or object is FeeMissing.
func ParseFeeValue(raw json.RawMessage) FeeValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return FeeValue{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return FeeValue{}
		}
		return FeeValue{Kind: FeeText, Text: s}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return FeeValue{}
		}
		return FeeValue{Kind: FeeObject, Object: obj}
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return FeeValue{}
	}
	return FeeValue{Kind: FeeNumber, Number: n}
}

// Amount resolves the fee. Values that do not parse to a finite,
// non-negative number resolve to zero.
func (v FeeValue) Amount() money.Money {
	major, ok := v.major()
	if !ok || math.IsNaN(major) || math.IsInf(major, 0) || major < 0 {
		return money.Zero()
	}
	return money.FromMajor(major)
}

func (v FeeValue) major() (float64, bool) {
	switch v.Kind {
	case FeeNumber:
		return v.Number, true
	case FeeText:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		return n, err == nil
	case FeeObject:
		for _, key := range objectKeys {
			raw, ok := v.Object[key]
			if !ok || string(bytes.TrimSpace(raw)) == "null" {
				continue
			}
			inner := ParseFeeValue(raw)
			if inner.Kind == FeeObject {
				return 0, false
			}
			return inner.major()
		}
	}
	return 0, false
}
