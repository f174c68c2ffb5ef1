// Package billing computes invoice totals. Everything here is pure: no I/O,
// no clock, no shared state, so the same lines always produce the same Totals.
package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Line is one priced row of an invoice, draft or purchase.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	// GSTRate is a percentage, e.g. 18 for 18%.
	GSTRate decimal.Decimal
	// Discount is a flat per-line amount kept for display; it does not enter Compute.
	Discount decimal.Decimal
}

// Base returns unit price times quantity.
func (l Line) Base() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// GSTBucket accumulates tax for every line sharing one rate.
type GSTBucket struct {
	Rate  decimal.Decimal
	CGST  decimal.Decimal
	SGST  decimal.Decimal
	Total decimal.Decimal
}

// Totals is the output of Compute. GSTBreakdown is ordered by rate ascending.
type Totals struct {
	SubTotal       decimal.Decimal
	GSTBreakdown   []GSTBucket
	GSTTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// LineAmount is the cached per-line amount: price * qty * (1 + rate/100).
func LineAmount(l Line) decimal.Decimal {
	base := l.Base()
	return base.Add(base.Mul(l.GSTRate).Div(hundred))
}

// Compute derives invoice totals from lines, a signed adjustment and a
// discount percentage applied to the subtotal.
//
// Lines with a zero rate, quantity or price contribute nothing to the GST
// breakdown. Every line contributes its base amount to the subtotal.
// Negative inputs are not rejected here; see ValidateLines.
func Compute(lines []Line, adjustment, discountPercent decimal.Decimal) Totals {
	subTotal := decimal.Zero
	buckets := make(map[string]*GSTBucket)

	for _, l := range lines {
		base := l.Base()
		subTotal = subTotal.Add(base)

		if !l.GSTRate.IsPositive() || l.Quantity == 0 || l.UnitPrice.IsZero() {
			continue
		}

		gst := base.Mul(l.GSTRate).Div(hundred)
		cgst := gst.Div(two)
		sgst := gst.Sub(cgst)

		key := l.GSTRate.String()
		b, ok := buckets[key]
		if !ok {
			b = &GSTBucket{Rate: l.GSTRate, CGST: decimal.Zero, SGST: decimal.Zero, Total: decimal.Zero}
			buckets[key] = b
		}
		b.CGST = b.CGST.Add(cgst)
		b.SGST = b.SGST.Add(sgst)
		b.Total = b.Total.Add(gst)
	}

	breakdown := make([]GSTBucket, 0, len(buckets))
	gstTotal := decimal.Zero
	for _, b := range buckets {
		breakdown = append(breakdown, *b)
		gstTotal = gstTotal.Add(b.Total)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Rate.LessThan(breakdown[j].Rate)
	})

	discountAmount := subTotal.Mul(discountPercent).Div(hundred)

	return Totals{
		SubTotal:       subTotal,
		GSTBreakdown:   breakdown,
		GSTTotal:       gstTotal,
		DiscountAmount: discountAmount,
		GrandTotal:     subTotal.Add(gstTotal).Add(adjustment).Sub(discountAmount),
	}
}
