package core

import "github.com/shopspring/decimal"

// BreakdownInput is a full recalculation request for one document.
type BreakdownInput struct {
	ItemTotal               decimal.Decimal
	Charges                 Charges
	SalesTaxes              SalesTaxes
	Profile                 Profile
	AdvancePaymentDeduction decimal.Decimal
	HoldbackDeduction       decimal.Decimal
	// Override is only consulted when Profile.AllowEditTotal is set.
	Override decimal.NullDecimal
}

// Calculation is a freshly built breakdown plus the intermediate figures.
type Calculation struct {
	Breakdown      FinancialBreakdown
	Charges        ChargesResult
	Reconciliation Reconciliation
}

// Calculate runs the charges calculator and the reconciler and assembles
// the breakdown to persist. The result never aliases the input.
func Calculate(in BreakdownInput) Calculation {
	charges := CalculateCharges(ChargesInput{
		ItemTotal:   in.ItemTotal,
		Charges:     in.Charges,
		SalesTaxes:  in.SalesTaxes,
		HideCharges: in.Profile.HideCharges,
	})

	override := decimal.NullDecimal{}
	if in.Profile.AllowEditTotal {
		override = in.Override
	}
	rec := ReconcileTotal(ReconcileInput{
		ItemTotal:               in.ItemTotal,
		ChargesTotal:            charges.ChargesTotal,
		TaxTotal:                charges.TaxTotal,
		AdvancePaymentDeduction: in.AdvancePaymentDeduction,
		HoldbackDeduction:       in.HoldbackDeduction,
		AllowEditTotal:          in.Profile.AllowEditTotal,
		Override:                override,
	})

	totals := BreakdownTotals{
		ItemTotal:     nullOf(in.ItemTotal),
		ChargesTotal:  nullOf(charges.ChargesTotal),
		TaxTotal:      nullOf(charges.TaxTotal),
		TotalField:    in.Profile.TotalField,
		DocumentTotal: nullOf(rec.DocumentTotal),
	}
	if in.Profile.AllowEditTotal {
		totals.InvoiceTotal = rec.EditableTotal
	}

	return Calculation{
		Breakdown: FinancialBreakdown{
			Charges:    charges.Charges,
			SalesTaxes: charges.SalesTaxes,
			Totals:     totals,
		},
		Charges:        charges,
		Reconciliation: rec,
	}
}
