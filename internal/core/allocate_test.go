package core_test

import (
	"testing"

	"procurement-backoffice/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func computedBreakdown(itemTotal string) core.FinancialBreakdown {
	in := scenarioInput()
	in.ItemTotal = dec(itemTotal)
	in.Charges.CustomDuties = core.ChargeLine{Amount: amt("33.33")}
	in.Charges.Other = core.ChargeLine{Amount: amt("7")}
	return core.Calculate(core.BreakdownInput{
		ItemTotal:  in.ItemTotal,
		Charges:    in.Charges,
		SalesTaxes: in.SalesTaxes,
		Profile:    core.DefaultProfiles().Lookup(core.PurchaseOrder, core.Material),
	}).Breakdown
}

func TestAllocateLine(t *testing.T) {
	b := computedBreakdown("1000")

	a := core.AllocateLine(b, dec("250"))
	assertDecimal(t, "250", a.LineTotal)
	assertDecimal(t, "12.5", a.Freight)
	assertDecimal(t, "7.5", a.Packing)
	assertDecimal(t, "8.3325", a.CustomDuties)
	assertDecimal(t, "1.75", a.Other)
	// both tax slots allocated together: (105 + 52.5) / 4
	tax := b.SalesTaxes.SalesTax1.Amount.Decimal.Add(b.SalesTaxes.SalesTax2.Amount.Decimal)
	assert.True(t, tax.Div(decimal.NewFromInt(4)).Equal(a.SalesTax), a.SalesTax.String())
	assert.True(t, a.LineTotal.Add(a.Freight).Add(a.Packing).Add(a.CustomDuties).Add(a.Other).Add(a.SalesTax).Equal(a.ExpectedCost))
}

func TestExpectedCosts_AdditiveOverItems(t *testing.T) {
	lines := []decimal.Decimal{dec("123.45"), dec("333.33"), dec("43.22"), dec("500")}
	itemTotal := core.SumLineTotals(lines, func(d decimal.Decimal) decimal.Decimal { return d })
	b := computedBreakdown(itemTotal.String())

	alloc := core.ExpectedCosts(b, lines, func(d decimal.Decimal) decimal.Decimal { return d })
	assert.Len(t, alloc.Lines, len(lines))

	want := b.Totals.ItemTotal.Decimal.Add(b.Totals.ChargesTotal.Decimal).Add(b.Totals.TaxTotal.Decimal)
	diff := want.Sub(alloc.Total).Abs()
	assert.True(t, diff.LessThan(dec("0.000001")), "total %s want %s", alloc.Total, want)
}

func TestExpectedCosts_ZeroItemTotal(t *testing.T) {
	b := core.FinancialBreakdown{
		Charges: core.Charges{Freight: core.ChargeLine{Amount: amt("50")}},
		Totals:  core.BreakdownTotals{ItemTotal: amt("0")},
	}
	a := core.AllocateLine(b, dec("100"))
	assertDecimal(t, "0", a.Freight)
	assertDecimal(t, "0", a.SalesTax)
	assertDecimal(t, "100", a.ExpectedCost)

	b.Totals.ItemTotal = amt("-10")
	assertDecimal(t, "0", core.AllocateLine(b, dec("100")).Freight)

	b.Totals.ItemTotal = decimal.NullDecimal{}
	assertDecimal(t, "0", core.AllocateLine(b, dec("100")).Freight)
}

func TestTotalExpectedCosts_Empty(t *testing.T) {
	b := computedBreakdown("1000")
	identity := func(d decimal.Decimal) decimal.Decimal { return d }
	assertDecimal(t, "0", core.TotalExpectedCosts(b, nil, identity))
	assertDecimal(t, "0", core.TotalExpectedCosts(b, []decimal.Decimal{}, identity))
}

func TestDocumentExpectedCosts_MaterialAndLabor(t *testing.T) {
	profiles := core.DefaultProfiles()

	material := &core.Document{
		Type: core.PurchaseOrder,
		Kind: core.Material,
		Header: map[string]any{
			"freight_charges_percentage": "10",
			"sales_tax_1_percentage":     "5",
		},
		MaterialItems: []core.MaterialItem{
			{UUID: "a", Total: dec("600"), IsActive: true},
			{UUID: "b", Total: dec("400"), IsActive: true},
			{UUID: "c", Total: dec("999"), IsActive: false},
		},
	}
	material.Recompute(profiles.Lookup(material.Type, material.Kind))
	costs := material.ExpectedCosts()
	assert.Len(t, costs.Lines, 3)
	assertDecimal(t, "60", costs.Lines[0].Freight)
	assertDecimal(t, "0", costs.Lines[2].ExpectedCost)
	// 1000 + 100 freight + 5% tax on 1000
	assertDecimal(t, "1150", costs.Total)

	labor := &core.Document{
		Type: core.ChangeOrder,
		Kind: core.Labor,
		LaborItems: []core.LaborItem{
			{UUID: "l1", POAmount: dec("1000"), COAmount: dec("200"), IsActive: true},
			{UUID: "l2", POAmount: dec("500"), COAmount: dec("300"), IsActive: true},
		},
	}
	labor.Recompute(profiles.Lookup(labor.Type, labor.Kind))
	assertDecimal(t, "500", labor.Breakdown.Totals.ItemTotal.Decimal)
	assertDecimal(t, "500", labor.ExpectedCosts().Total)
}
