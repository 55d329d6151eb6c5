package core

import "github.com/shopspring/decimal"

// LineAllocation is one line item's share of the document's charges and
// taxes, i.e. its expected landed cost.
type LineAllocation struct {
	LineTotal    decimal.Decimal `json:"line_total"`
	Freight      decimal.Decimal `json:"freight"`
	Packing      decimal.Decimal `json:"packing"`
	CustomDuties decimal.Decimal `json:"custom_duties"`
	Other        decimal.Decimal `json:"other"`
	SalesTax     decimal.Decimal `json:"sales_tax"`
	ExpectedCost decimal.Decimal `json:"expected_cost"`
}

// CostAllocation is the allocation of a whole item list.
type CostAllocation struct {
	Lines []LineAllocation `json:"lines"`
	Total decimal.Decimal  `json:"total"`
}

// AllocateLine apportions the breakdown's charges and taxes to a line by its
// share of the item total. Both tax slots are summed before allocation.
// A non-positive item total allocates nothing.
func AllocateLine(b FinancialBreakdown, lineTotal decimal.Decimal) LineAllocation {
	itemTotal := valueOrZero(b.Totals.ItemTotal)
	share := func(amount decimal.NullDecimal) decimal.Decimal {
		if !itemTotal.IsPositive() {
			return decimal.Zero
		}
		return lineTotal.Mul(valueOrZero(amount)).Div(itemTotal)
	}

	taxes := decimal.NewNullDecimal(valueOrZero(b.SalesTaxes.SalesTax1.Amount).Add(valueOrZero(b.SalesTaxes.SalesTax2.Amount)))
	a := LineAllocation{
		LineTotal:    lineTotal,
		Freight:      share(b.Charges.Freight.Amount),
		Packing:      share(b.Charges.Packing.Amount),
		CustomDuties: share(b.Charges.CustomDuties.Amount),
		Other:        share(b.Charges.Other.Amount),
		SalesTax:     share(taxes),
	}
	a.ExpectedCost = lineTotal.Add(a.Freight).Add(a.Packing).Add(a.CustomDuties).Add(a.Other).Add(a.SalesTax)
	return a
}

// ExpectedCosts allocates every item in items. lineTotal picks the figure
// each item contributes to the item total, so material and labor items go
// through the same path.
func ExpectedCosts[T any](b FinancialBreakdown, items []T, lineTotal func(T) decimal.Decimal) CostAllocation {
	out := CostAllocation{Lines: make([]LineAllocation, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		a := AllocateLine(b, lineTotal(item))
		out.Lines = append(out.Lines, a)
		out.Total = out.Total.Add(a.ExpectedCost)
	}
	return out
}

// TotalExpectedCosts is the sum of ExpectedCosts; zero for an empty list.
func TotalExpectedCosts[T any](b FinancialBreakdown, items []T, lineTotal func(T) decimal.Decimal) decimal.Decimal {
	return ExpectedCosts(b, items, lineTotal).Total
}

// SumLineTotals adds up lineTotal over items.
func SumLineTotals[T any](items []T, lineTotal func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(lineTotal(item))
	}
	return total
}
