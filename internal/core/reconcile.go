package core

import "github.com/shopspring/decimal"

// ReconcileInput combines the calculator sums with the deductions and,
// for editable-total document types, the previously persisted override.
type ReconcileInput struct {
	ItemTotal               decimal.Decimal
	ChargesTotal            decimal.Decimal
	TaxTotal                decimal.Decimal
	AdvancePaymentDeduction decimal.Decimal
	HoldbackDeduction       decimal.Decimal
	AllowEditTotal          bool
	Override                decimal.NullDecimal
}

// Reconciliation is the outcome of ReconcileTotal.
//
// FinalTotal is always the live computation. EditableTotal is what an edit
// field should show: the override when one exists, otherwise null so the
// field starts empty. DocumentTotal is what gets written to the document's
// designated total field.
type Reconciliation struct {
	ComputedTotal   decimal.Decimal     `json:"computed_total"`
	FinalTotal      decimal.Decimal     `json:"final_total"`
	EditableTotal   decimal.NullDecimal `json:"editable_total"`
	DocumentTotal   decimal.Decimal     `json:"document_total"`
	OverrideApplied bool                `json:"override_applied"`
}

// ReconcileTotal applies deductions, the zero floor and override precedence.
func ReconcileTotal(in ReconcileInput) Reconciliation {
	computed := in.ItemTotal.Add(in.ChargesTotal).Add(in.TaxTotal)
	final := decimal.Max(decimal.Zero, computed.Sub(in.AdvancePaymentDeduction).Sub(in.HoldbackDeduction))

	r := Reconciliation{
		ComputedTotal: computed,
		FinalTotal:    final,
		DocumentTotal: final,
	}
	if !in.AllowEditTotal {
		return r
	}
	if in.Override.Valid {
		r.EditableTotal = in.Override
		r.DocumentTotal = in.Override.Decimal
		r.OverrideApplied = true
	}
	return r
}

// OverrideFrom reads a persisted manual total: totals.total_invoice_amount
// first, then the document's own amount field.
func OverrideFrom(b FinancialBreakdown, amount decimal.NullDecimal) decimal.NullDecimal {
	if b.Totals.InvoiceTotal.Valid {
		return b.Totals.InvoiceTotal
	}
	return amount
}
