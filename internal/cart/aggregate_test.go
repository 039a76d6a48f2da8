package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common/money"
)

func flatFee(fee float64) ShippingRule {
	return ShippingRuleFunc(func(subtotal money.Money) money.Money {
		if subtotal.IsZero() || subtotal.GreaterThan(money.FromMajor(10000)) {
			return money.Zero()
		}
		return money.FromMajor(fee)
	})
}

func TestGroup_MergesDuplicates(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ID: "v1", Name: "Tee", Price: money.FromMajor(2500), Quantity: 2},
		{ID: "v1", Name: "Tee", Price: money.FromMajor(2500), Quantity: 1},
	}

	grouped := Group(lines)
	require.Len(t, grouped, 1)
	assert.Equal(t, "v1", grouped[0].ID)
	assert.Equal(t, 3, grouped[0].Quantity)
	assert.Equal(t, money.FromMajor(2500), grouped[0].Price)
}

func TestSummarize_MergedLinesWithShipping(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ID: "v1", Price: money.FromMajor(2500), Quantity: 2},
		{ID: "v1", Price: money.FromMajor(2500), Quantity: 1},
	}

	s := Summarize(Group(lines), flatFee(750), money.Zero())
	assert.Equal(t, money.FromMajor(7500), s.Subtotal)
	assert.Equal(t, money.FromMajor(750), s.Shipping)
	assert.Equal(t, money.FromMajor(8250), s.Total)
	assert.Equal(t, 3, s.Count)
}

func TestGroup_KeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ID: "b", Quantity: 1},
		{ID: "a", Quantity: 1},
		{ID: "b", Quantity: 4},
		{ID: "c", Quantity: 1},
	}

	grouped := Group(lines)
	require.Len(t, grouped, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{grouped[0].ID, grouped[1].ID, grouped[2].ID})
	assert.Equal(t, 5, grouped[0].Quantity)
}

func TestGroup_MissingQuantityDefaultsToOne(t *testing.T) {
	t.Parallel()

	grouped := Group([]Line{{ID: "x"}, {ID: "x"}, {ID: "y", Quantity: 0}})
	require.Len(t, grouped, 2)
	assert.Equal(t, 2, grouped[0].Quantity)
	assert.Equal(t, 1, grouped[1].Quantity)
}

func TestGroup_PrefersNonEmptyImage(t *testing.T) {
	t.Parallel()

	grouped := Group([]Line{
		{ID: "x", Quantity: 1},
		{ID: "x", Quantity: 1, Image: "a.png"},
		{ID: "x", Quantity: 1, Image: "b.png"},
	})
	require.Len(t, grouped, 1)
	assert.Equal(t, "a.png", grouped[0].Image)
}

func TestGroup_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	lines := []Line{{ID: "x", Quantity: 1}, {ID: "x", Quantity: 2}}
	Group(lines)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestGroupingKey_Priority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line Line
		want string
	}{
		{Line{ID: "id", VariationKey: "vk", ProductID: "p", Name: "n"}, "id"},
		{Line{VariationKey: "vk", CartItemID: "ci"}, "vk"},
		{Line{CartItemID: "ci", ProductVariationID: "pv"}, "ci"},
		{Line{ProductVariationID: "pv", ProductID: "p"}, "pv"},
		{Line{ProductID: "p", Name: "n"}, "p"},
		{Line{Name: "n"}, "n"},
		{Line{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupingKey(tt.line))
	}
}

func TestGroup_KeylessLinesNeverMerge(t *testing.T) {
	t.Parallel()

	grouped := Group([]Line{{Quantity: 1}, {Quantity: 2}})
	assert.Len(t, grouped, 2)
}

func TestGroup_PreservesUnitCount(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ID: "a", Quantity: 3}, {ProductID: "p", Quantity: 2}, {ID: "a", Quantity: 7},
		{Name: "gift", Quantity: 1}, {ProductID: "p", Quantity: 5}, {Quantity: 4},
	}
	raw := 0
	for _, l := range lines {
		raw += l.Quantity
	}
	assert.Equal(t, raw, Count(Group(lines)))
}

func TestSummarize_Shipping(t *testing.T) {
	t.Parallel()

	rule := flatFee(750)

	free := Summarize([]Line{{ID: "a", Price: money.FromMajor(10001), Quantity: 1}}, rule, money.Zero())
	assert.True(t, free.Shipping.IsZero())

	edge := Summarize([]Line{{ID: "a", Price: money.FromMajor(10000), Quantity: 1}}, rule, money.Zero())
	assert.Equal(t, money.FromMajor(750), edge.Shipping)

	empty := Summarize(nil, rule, money.Zero())
	assert.True(t, empty.Shipping.IsZero())
	assert.True(t, empty.Total.IsZero())
	assert.True(t, empty.IsEmpty())
}

func TestSummarize_TotalNeverNegative(t *testing.T) {
	t.Parallel()

	lines := []Line{{ID: "a", Price: money.FromMajor(100), Quantity: 1}}
	s := Summarize(lines, flatFee(750), money.FromMajor(5000))
	assert.True(t, s.Total.IsZero())
	assert.Equal(t, money.FromMajor(5000), s.Discount)

	s = Summarize(lines, flatFee(750), money.FromMajor(-20))
	assert.True(t, s.Discount.IsZero())
	assert.Equal(t, money.FromMajor(850), s.Total)
}

func TestSummarize_CouponExample(t *testing.T) {
	t.Parallel()

	lines := []Line{{ID: "a", Price: money.FromMajor(5000), Quantity: 1}}
	s := Summarize(lines, flatFee(750), money.FromMajor(500))
	assert.Equal(t, money.FromMajor(5250), s.Total)
}

func TestSummarize_NegativePriceCountsAsZero(t *testing.T) {
	t.Parallel()

	s := Summarize([]Line{{ID: "a", Price: money.FromMajor(-10), Quantity: 2}}, nil, money.Zero())
	assert.True(t, s.Subtotal.IsZero())
}

func TestAggregator_MemoizesByRevision(t *testing.T) {
	t.Parallel()

	var a Aggregator
	lines := []Line{{ID: "a", Quantity: 1}, {ID: "a", Quantity: 1}}

	first := a.Grouped(1, lines)
	second := a.Grouped(1, lines)
	require.Len(t, first, 1)
	assert.Same(t, &first[0], &second[0])

	third := a.Grouped(2, append(lines, Line{ID: "b", Quantity: 1}))
	assert.Len(t, third, 2)
}

func TestSummarize_HugeLinesSaturate(t *testing.T) {
	t.Parallel()

	lines := Group([]Line{
		{ID: "a", Price: money.FromMajor(1e16), Quantity: 1000},
		{ID: "b", Price: money.FromMajor(1e16), Quantity: 1000},
	})
	s := Summarize(lines, flatFee(750), money.Zero())

	assert.Equal(t, int64(math.MaxInt64), s.Subtotal.AmountMinor)
	assert.Equal(t, int64(math.MaxInt64), s.Total.AmountMinor)
}
