// Package cart groups raw cart lines into a priced checkout summary.
package cart

import "storefront/internal/common/money"

// Line is one raw cart entry as added by the storefront.
type Line struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Price              money.Money `json:"price"`
	Quantity           int         `json:"quantity"`
	Image              string      `json:"image,omitempty"`
	Color              string      `json:"color,omitempty"`
	Size               string      `json:"size,omitempty"`
	VariationKey       string      `json:"variationKey,omitempty"`
	CartItemID         string      `json:"cartItemId,omitempty"`
	ProductVariationID string      `json:"productVariationId,omitempty"`
	ProductID          string      `json:"productId,omitempty"`
}

// keyCandidate extracts one grouping key candidate from a line.
type keyCandidate func(Line) string

// keyCandidates are tried in priority order; the first non-empty value is
// the grouping key.
var keyCandidates = []keyCandidate{
	func(l Line) string { return l.ID },
	func(l Line) string { return l.VariationKey },
	func(l Line) string { return l.CartItemID },
	func(l Line) string { return l.ProductVariationID },
	func(l Line) string { return l.ProductID },
	func(l Line) string { return l.Name },
}

// GroupingKey returns the key duplicate lines are merged by, or "" when the
// line carries no identifier at all.
func GroupingKey(l Line) string {
	for _, c := range keyCandidates {
		if v := c(l); v != "" {
			return v
		}
	}
	return ""
}

// EffectiveQuantity treats a missing quantity as one.
func (l Line) EffectiveQuantity() int {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

// LineTotal is unit price times quantity. Negative prices count as zero.
func (l Line) LineTotal() money.Money {
	return l.Price.NonNegative().Multiply(int64(l.EffectiveQuantity()))
}
