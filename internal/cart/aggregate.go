package cart

import "storefront/internal/common/money"

// ShippingRule decides the shipping fee for a cart subtotal.
type ShippingRule interface {
	FeeFor(subtotal money.Money) money.Money
}

// ShippingRuleFunc adapts a function to ShippingRule.
type ShippingRuleFunc func(subtotal money.Money) money.Money

// FeeFor implements ShippingRule.
func (f ShippingRuleFunc) FeeFor(subtotal money.Money) money.Money {
	return f(subtotal)
}

// Summary is the grouped, priced view of a cart.
type Summary struct {
	Lines    []Line      `json:"lines"`
	Subtotal money.Money `json:"subtotal"`
	Count    int         `json:"count"`
	Shipping money.Money `json:"shipping"`
	Discount money.Money `json:"discount"`
	Total    money.Money `json:"total"`
}

// IsEmpty reports whether the cart has no lines.
func (s Summary) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Group merges lines sharing a grouping key. The first occurrence keeps its
// position and attributes; later duplicates add their quantity and supply
// an image if the merged line has none. Lines without a key are kept as is.
func Group(lines []Line) []Line {
	grouped := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, item := range lines {
		key := GroupingKey(item)
		if key != "" {
			if i, ok := index[key]; ok {
				existing := &grouped[i]
				existing.Quantity = existing.EffectiveQuantity() + item.EffectiveQuantity()
				if existing.Image == "" && item.Image != "" {
					existing.Image = item.Image
				}
				continue
			}
			index[key] = len(grouped)
		}
		item.Quantity = item.EffectiveQuantity()
		grouped = append(grouped, item)
	}

	return grouped
}

// Subtotal sums price times quantity.
func Subtotal(lines []Line) money.Money {
	total := money.Zero()
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Count sums quantities.
func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.EffectiveQuantity()
	}
	return n
}

// Summarize prices already grouped lines. The total never goes below zero,
// however large the discount.
func Summarize(grouped []Line, rule ShippingRule, discount money.Money) Summary {
	subtotal := Subtotal(grouped)
	shipping := money.Zero()
	if rule != nil {
		shipping = rule.FeeFor(subtotal).NonNegative()
	}
	discount = discount.NonNegative()

	return Summary{
		Lines:    grouped,
		Subtotal: subtotal,
		Count:    Count(grouped),
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(shipping).Sub(discount).NonNegative(),
	}
}

// Aggregator memoizes the grouped lines for a cart revision so repeated
// summaries of an unchanged cart return the same slice. It is not safe for
// concurrent use; the owning session serializes access.
type Aggregator struct {
	rev     uint64
	cached  bool
	grouped []Line
}

// Grouped returns the grouped lines for rev, regrouping only when rev
// differs from the last call.
func (a *Aggregator) Grouped(rev uint64, lines []Line) []Line {
	if a.cached && a.rev == rev {
		return a.grouped
	}
	a.rev = rev
	a.grouped = Group(lines)
	a.cached = true
	return a.grouped
}

// Summary groups (memoized) and prices the cart.
func (a *Aggregator) Summary(rev uint64, lines []Line, rule ShippingRule, discount money.Money) Summary {
	return Summarize(a.Grouped(rev, lines), rule, discount)
}
