package transactions

import "github.com/odyssey-erp/salesadmin/internal/sales/pricing"

// UpsertLineItem returns a new slice where newLine replaces any line with the
// same item ID. A replaced line moves to the end; otherwise newLine is appended.
func UpsertLineItem(lines []pricing.Line, newLine pricing.Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines)+1)
	for _, line := range lines {
		if line.ItemID == newLine.ItemID {
			continue
		}
		out = append(out, line)
	}
	return append(out, pricing.Recompute(newLine))
}

// RemoveLineItem returns a new slice without the line for itemID.
// A missing item leaves the content unchanged.
func RemoveLineItem(lines []pricing.Line, itemID int64) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.ItemID != itemID {
			out = append(out, line)
		}
	}
	return out
}

// ComputeTotals sums line totals and applies order discount and shipping.
// The grand total is not floored at zero.
func ComputeTotals(lines []pricing.Line, orderDiscount, shippingCost float64) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.LineTotal
	}
	return Totals{
		Subtotal:   subtotal,
		GrandTotal: subtotal - orderDiscount + shippingCost,
	}
}
