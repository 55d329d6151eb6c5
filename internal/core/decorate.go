package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Flat field names used by forms and list views.
const (
	FieldItemTotal    = "item_total"
	FieldChargesTotal = "charges_total"
	FieldTaxTotal     = "tax_total"
)

// flatChargeKeys maps each charge category to its canonical flat prefix
// followed by prefixes accepted on read only.
var flatChargeKeys = map[ChargeCategory][]string{
	ChargeFreight:      {"freight_charges", "freight"},
	ChargePacking:      {"packing_charges", "packing"},
	ChargeCustomDuties: {"custom_duties", "custom_duties_charges", "customs_duties"},
	ChargeOther:        {"other_charges", "other"},
}

var flatTaxKeys = map[TaxSlot][]string{
	SalesTax1: {"sales_tax_1", "sales_tax1"},
	SalesTax2: {"sales_tax_2", "sales_tax2"},
}

// FlatBreakdown is a breakdown expanded into the field names the rest of the
// system reads (freight_charges_percentage, sales_tax_1_amount, ...).
type FlatBreakdown struct {
	Charges       Charges
	SalesTaxes    SalesTaxes
	ItemTotal     decimal.NullDecimal
	ChargesTotal  decimal.NullDecimal
	TaxTotal      decimal.NullDecimal
	TotalField    string
	DocumentTotal decimal.NullDecimal
}

// Flatten expands b without touching its totals. Use it for breakdowns that
// were just computed; anything read from storage goes through Decorate.
func Flatten(b FinancialBreakdown) FlatBreakdown {
	return FlatBreakdown{
		Charges:       b.Charges,
		SalesTaxes:    b.SalesTaxes,
		ItemTotal:     b.Totals.ItemTotal,
		ChargesTotal:  b.Totals.ChargesTotal,
		TaxTotal:      b.Totals.TaxTotal,
		TotalField:    b.Totals.TotalField,
		DocumentTotal: b.Totals.DocumentTotal,
	}
}

// Decorate parses a stored breakdown and flattens it for display.
//
// Charge and tax leaves are read through from storage. The summary totals
// are not: unless p.TrustStoredTotals is set they come back null and must be
// recomputed from the live line items, because a line item edit does not
// rewrite the stored blob.
func Decorate(raw any, p Profile) FlatBreakdown {
	f := Flatten(ParseBreakdown(raw))
	if f.TotalField == "" {
		f.TotalField = p.TotalField
	}
	if !p.TrustStoredTotals {
		f.ItemTotal = decimal.NullDecimal{}
		f.ChargesTotal = decimal.NullDecimal{}
		f.TaxTotal = decimal.NullDecimal{}
		f.DocumentTotal = decimal.NullDecimal{}
	}
	return f
}

// WithTotals replaces the summary totals with those of a live calculation.
func (f FlatBreakdown) WithTotals(c Calculation) FlatBreakdown {
	t := c.Breakdown.Totals
	f.ItemTotal = t.ItemTotal
	f.ChargesTotal = t.ChargesTotal
	f.TaxTotal = t.TaxTotal
	f.TotalField = t.TotalField
	f.DocumentTotal = t.DocumentTotal
	return f
}

// Fields returns the flat map merged onto documents for UI consumption.
// Null amounts are nil; present amounts are decimal.Decimal values.
func (f FlatBreakdown) Fields() map[string]any {
	out := make(map[string]any, 24)
	for _, cat := range ChargeCategories {
		prefix := flatChargeKeys[cat][0]
		line := f.Charges.Get(cat)
		out[prefix+"_percentage"] = nullableValue(line.Percentage)
		out[prefix+"_amount"] = nullableValue(line.Amount)
		out[prefix+"_taxable"] = line.Taxable
	}
	for _, slot := range TaxSlots {
		prefix := flatTaxKeys[slot][0]
		line := f.SalesTaxes.Get(slot)
		out[prefix+"_percentage"] = nullableValue(line.Percentage)
		out[prefix+"_amount"] = nullableValue(line.Amount)
	}
	out[FieldItemTotal] = nullableValue(f.ItemTotal)
	out[FieldChargesTotal] = nullableValue(f.ChargesTotal)
	out[FieldTaxTotal] = nullableValue(f.TaxTotal)
	if f.TotalField != "" {
		out[f.TotalField] = nullableValue(f.DocumentTotal)
	}
	return out
}

func (f FlatBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Fields())
}

// ChargeInputsFromFields reads charge and tax leaves out of flat fields.
func ChargeInputsFromFields(fields map[string]any) (Charges, SalesTaxes) {
	return MergeChargeFields(fields, Charges{}, SalesTaxes{})
}

// MergeChargeFields overlays the flat charge and tax fields present in
// fields onto c and t. A key that is present with a null value clears the
// leaf; an absent key leaves it alone.
func MergeChargeFields(fields map[string]any, c Charges, t SalesTaxes) (Charges, SalesTaxes) {
	for _, cat := range ChargeCategories {
		line := c.Line(cat)
		prefixes := flatChargeKeys[cat]
		if v, ok := firstPresent(fields, suffixed(prefixes, "_percentage")...); ok {
			line.Percentage = ToNumberOrNull(v)
		}
		if v, ok := firstPresent(fields, suffixed(prefixes, "_amount")...); ok {
			line.Amount = ToNumberOrNull(v)
		}
		if v, ok := firstPresent(fields, suffixed(prefixes, "_taxable")...); ok {
			line.Taxable = ToBoolean(v)
		}
	}
	for _, slot := range TaxSlots {
		line := t.Line(slot)
		prefixes := flatTaxKeys[slot]
		if v, ok := firstPresent(fields, suffixed(prefixes, "_percentage")...); ok {
			line.Percentage = ToNumberOrNull(v)
		}
		if v, ok := firstPresent(fields, suffixed(prefixes, "_amount")...); ok {
			line.Amount = ToNumberOrNull(v)
		}
	}
	return c, t
}

// firstPresent returns the value of the first key in keys that exists in m.
// A present key shadows the keys after it even when its value is null.
func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func suffixed(prefixes []string, suffix string) []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p + suffix
	}
	return out
}

func nullableValue(n decimal.NullDecimal) any {
	if !n.Valid {
		return nil
	}
	return n.Decimal
}
