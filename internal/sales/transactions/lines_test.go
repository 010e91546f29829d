package transactions

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/salesadmin/internal/sales/pricing"
)

func line(id int64, price, qty, disc float64) pricing.Line {
	return pricing.Recompute(pricing.Line{ItemID: id, UnitPrice: price, Quantity: qty, DiscountPercentage: disc})
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, 0, 5000)
	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 5000.0, totals.GrandTotal)

	totals = ComputeTotals([]pricing.Line{}, 2000, 500)
	assert.Equal(t, -1500.0, totals.GrandTotal)
}

func TestComputeTotals(t *testing.T) {
	lines := []pricing.Line{line(1, 1000, 2, 10), line(2, 500, 3, 0)}
	totals := ComputeTotals(lines, 300, 1000)
	assert.InDelta(t, 3300, totals.Subtotal, 1e-9)
	assert.InDelta(t, 4000, totals.GrandTotal, 1e-9)
}

func TestUpsertLineItemReplacesAndMovesToEnd(t *testing.T) {
	lines := []pricing.Line{line(1, 100, 1, 0), line(2, 200, 1, 0), line(3, 300, 1, 0)}

	out := UpsertLineItem(lines, line(1, 100, 5, 0))
	require.Len(t, out, 3)
	assert.Equal(t, []int64{2, 3, 1}, ids(out))
	assert.Equal(t, 5.0, out[2].Quantity)
	assert.Equal(t, 1.0, lines[0].Quantity, "input must not be mutated")

	out = UpsertLineItem(out, line(4, 50, 1, 0))
	assert.Equal(t, []int64{2, 3, 1, 4}, ids(out))
}

func TestUpsertLineItemIdempotent(t *testing.T) {
	l := line(7, 1000, 2, 10)
	out := UpsertLineItem(UpsertLineItem(nil, l), l)
	require.Len(t, out, 1)
	assert.Equal(t, l, out[0])
}

func TestUpsertLineItemRecomputesDerivedFields(t *testing.T) {
	stale := pricing.Line{ItemID: 1, UnitPrice: 1000, Quantity: 2, DiscountPercentage: 10, LineTotal: 1}
	out := UpsertLineItem(nil, stale)
	assert.InDelta(t, 1800, out[0].LineTotal, 1e-9)
}

func TestRemoveLineItem(t *testing.T) {
	lines := []pricing.Line{line(1, 100, 1, 0), line(2, 200, 1, 0)}

	out := RemoveLineItem(lines, 1)
	assert.Equal(t, []int64{2}, ids(out))
	assert.Len(t, lines, 2)

	out = RemoveLineItem(lines, 99)
	assert.Equal(t, lines, out)

	assert.Empty(t, RemoveLineItem(nil, 1))
}

func TestIncrementalTotalsMatchRecomputed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var lines []pricing.Line
	for step := 0; step < 500; step++ {
		id := int64(rng.Intn(8) + 1)
		if rng.Intn(3) == 0 {
			lines = RemoveLineItem(lines, id)
		} else {
			lines = UpsertLineItem(lines, line(id, float64(rng.Intn(100000)), float64(rng.Intn(10)), float64(rng.Intn(101))))
		}

		var want float64
		seen := map[int64]bool{}
		for _, l := range lines {
			require.False(t, seen[l.ItemID], "duplicate item %d", l.ItemID)
			seen[l.ItemID] = true
			want += pricing.ComputeLine(l.UnitPrice, l.Quantity, l.DiscountPercentage).LineTotal
		}
		totals := ComputeTotals(lines, 100, 50)
		require.InDelta(t, want, totals.Subtotal, 1e-6)
		require.InDelta(t, want-100+50, totals.GrandTotal, 1e-6)
	}
}

func ids(lines []pricing.Line) []int64 {
	out := make([]int64, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.ItemID)
	}
	return out
}

func TestNormalizeFoldsRepeatedItems(t *testing.T) {
	d := OrderDraft{Lines: []pricing.Line{
		{ItemID: 7, UnitPrice: 1000, Quantity: 1},
		{ItemID: 8, UnitPrice: 1000, Quantity: 3},
		{ItemID: 7, UnitPrice: 1000, Quantity: 2},
	}}.Normalize()

	require.Len(t, d.Lines, 2)
	assert.Equal(t, []int64{8, 7}, ids(d.Lines))
	assert.Equal(t, 2.0, d.Lines[1].Quantity)
	assert.Equal(t, 5000.0, d.Totals().Subtotal)
	assert.Equal(t, StateEditing, d.State)
}

func TestCheckAmountsRejectsNegatives(t *testing.T) {
	ok := OrderDraft{Lines: []pricing.Line{{ItemID: 1, UnitPrice: 10, Quantity: 0}}}
	require.NoError(t, ok.CheckAmounts())

	cases := map[string]OrderDraft{
		"quantity": {Lines: []pricing.Line{{ItemID: 8, UnitPrice: 1000, Quantity: -3}}},
		"price":    {Lines: []pricing.Line{{ItemID: 8, UnitPrice: -1, Quantity: 1}}},
		"discount": {Lines: []pricing.Line{{ItemID: 8, UnitPrice: 1, Quantity: 1, DiscountPercentage: -5}}},
		"order":    {Discount: -1},
		"shipping": {ShippingCost: -1},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, d.CheckAmounts(), ErrNegativeAmount)
		})
	}
}
