// Package pricing computes invoice amounts. It is pure: no I/O, no clock, no
// side effects, so the transaction coordinator can call it any number of times
// while retrying.
package pricing

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Line holds the computed amounts for a single invoice line.
type Line struct {
	SubtotalPreTax decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// Totals holds the invoice-level aggregates.
type Totals struct {
	TotalAmount decimal.Decimal
	TaxAmount   decimal.Decimal
	GrandTotal  decimal.Decimal
}

// ComputeLine calculates the amounts for one line:
//
//	subtotalPreTax = price * quantity
//	tax            = subtotalPreTax * taxPercent / 100
//	total          = subtotalPreTax + tax
func ComputeLine(price, taxPercent decimal.Decimal, quantity int) Line {
	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	tax := subtotal.Mul(taxPercent).Div(oneHundred)

	return Line{
		SubtotalPreTax: subtotal,
		Tax:            tax,
		Total:          subtotal.Add(tax),
	}
}

// ComputeTotals aggregates line amounts into invoice totals. Discount is a
// flat invoice-level subtraction; it is not capped against the computed
// totals, so the grand total can go negative.
func ComputeTotals(lines []Line, discount decimal.Decimal) Totals {
	total := decimal.Zero
	tax := decimal.Zero

	for _, line := range lines {
		total = total.Add(line.SubtotalPreTax)
		tax = tax.Add(line.Tax)
	}

	return Totals{
		TotalAmount: total,
		TaxAmount:   tax,
		GrandTotal:  total.Add(tax).Sub(discount),
	}
}
