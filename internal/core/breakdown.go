package core

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChargeCategory names one of the four charge slots on a breakdown.
type ChargeCategory string

const (
	ChargeFreight      ChargeCategory = "freight"
	ChargePacking      ChargeCategory = "packing"
	ChargeCustomDuties ChargeCategory = "custom_duties"
	ChargeOther        ChargeCategory = "other"
)

// ChargeCategories lists the charge slots in display order.
var ChargeCategories = []ChargeCategory{ChargeFreight, ChargePacking, ChargeCustomDuties, ChargeOther}

// TaxSlot names one of the two independent sales tax slots.
type TaxSlot string

const (
	SalesTax1 TaxSlot = "sales_tax_1"
	SalesTax2 TaxSlot = "sales_tax_2"
)

// TaxSlots lists the sales tax slots in display order.
var TaxSlots = []TaxSlot{SalesTax1, SalesTax2}

// ChargeLine is a freight/packing/customs/other charge. When Percentage is
// set the amount is derived from the item total on every recalculation.
type ChargeLine struct {
	Percentage decimal.NullDecimal `json:"percentage"`
	Amount     decimal.NullDecimal `json:"amount"`
	Taxable    bool                `json:"taxable"`
}

// SalesTaxLine is one sales tax slot, applied against the taxable base.
type SalesTaxLine struct {
	Percentage decimal.NullDecimal `json:"percentage"`
	Amount     decimal.NullDecimal `json:"amount"`
}

type Charges struct {
	Freight      ChargeLine `json:"freight"`
	Packing      ChargeLine `json:"packing"`
	CustomDuties ChargeLine `json:"custom_duties"`
	Other        ChargeLine `json:"other"`
}

// Line returns a pointer to the charge line for cat, or nil for an unknown category.
func (c *Charges) Line(cat ChargeCategory) *ChargeLine {
	switch cat {
	case ChargeFreight:
		return &c.Freight
	case ChargePacking:
		return &c.Packing
	case ChargeCustomDuties:
		return &c.CustomDuties
	case ChargeOther:
		return &c.Other
	}
	return nil
}

// Get returns the charge line for cat by value.
func (c Charges) Get(cat ChargeCategory) ChargeLine {
	if l := c.Line(cat); l != nil {
		return *l
	}
	return ChargeLine{}
}

type SalesTaxes struct {
	SalesTax1 SalesTaxLine `json:"sales_tax_1"`
	SalesTax2 SalesTaxLine `json:"sales_tax_2"`
}

// Line returns a pointer to the tax line for slot, or nil for an unknown slot.
func (t *SalesTaxes) Line(slot TaxSlot) *SalesTaxLine {
	switch slot {
	case SalesTax1:
		return &t.SalesTax1
	case SalesTax2:
		return &t.SalesTax2
	}
	return nil
}

// Get returns the tax line for slot by value.
func (t SalesTaxes) Get(slot TaxSlot) SalesTaxLine {
	if l := t.Line(slot); l != nil {
		return *l
	}
	return SalesTaxLine{}
}

// Document total field names written by the different document types.
const (
	FieldTotalPOAmount      = "total_po_amount"
	FieldTotalCOAmount      = "total_co_amount"
	FieldAmount             = "amount"
	FieldTotalInvoiceAmount = "total_invoice_amount"
)

// documentTotalFields are the keys recognised as the grand total when a
// stored breakdown is parsed, in lookup order.
var documentTotalFields = []string{FieldTotalPOAmount, FieldTotalCOAmount, FieldAmount, "total_amount"}

// BreakdownTotals holds the summary figures. DocumentTotal is serialised
// under TotalField, which depends on the document type.
type BreakdownTotals struct {
	ItemTotal     decimal.NullDecimal
	ChargesTotal  decimal.NullDecimal
	TaxTotal      decimal.NullDecimal
	TotalField    string
	DocumentTotal decimal.NullDecimal
	// InvoiceTotal is the manually entered override (total_invoice_amount).
	InvoiceTotal decimal.NullDecimal
}

func (t BreakdownTotals) MarshalJSON() ([]byte, error) {
	m := map[string]decimal.NullDecimal{
		"item_total":    t.ItemTotal,
		"charges_total": t.ChargesTotal,
		"tax_total":     t.TaxTotal,
	}
	if t.TotalField != "" {
		m[t.TotalField] = t.DocumentTotal
	}
	if t.InvoiceTotal.Valid && t.TotalField != FieldTotalInvoiceAmount {
		m[FieldTotalInvoiceAmount] = t.InvoiceTotal
	}
	return json.Marshal(m)
}

func (t *BreakdownTotals) UnmarshalJSON(data []byte) error {
	m, ok := decodeObject(data)
	if !ok {
		*t = BreakdownTotals{}
		return nil
	}
	*t = parseTotals(m)
	return nil
}

// FinancialBreakdown is the structured blob persisted on purchase orders,
// change orders and invoices.
type FinancialBreakdown struct {
	Charges    Charges         `json:"charges"`
	SalesTaxes SalesTaxes      `json:"sales_taxes"`
	Totals     BreakdownTotals `json:"totals"`
}

// UnmarshalJSON accepts the same legacy shapes as ParseBreakdown and never fails.
func (b *FinancialBreakdown) UnmarshalJSON(data []byte) error {
	*b = ParseBreakdown(json.RawMessage(data))
	return nil
}

// ParseBreakdown turns whatever the store handed back into a breakdown.
// Objects pass through, JSON text (including a JSON string that itself holds
// an encoded object) is decoded, and anything malformed yields an empty
// breakdown rather than an error.
func ParseBreakdown(raw any) FinancialBreakdown {
	switch v := raw.(type) {
	case nil:
		return FinancialBreakdown{}
	case FinancialBreakdown:
		return v
	case *FinancialBreakdown:
		if v == nil {
			return FinancialBreakdown{}
		}
		return *v
	case map[string]any:
		return parseBreakdownMap(v)
	case string:
		return parseBreakdownJSON([]byte(v))
	case []byte:
		return parseBreakdownJSON(v)
	case json.RawMessage:
		return parseBreakdownJSON(v)
	}
	return FinancialBreakdown{}
}

func parseBreakdownJSON(data []byte) FinancialBreakdown {
	m, ok := decodeObject(data)
	if !ok {
		return FinancialBreakdown{}
	}
	return parseBreakdownMap(m)
}

// decodeObject decodes a JSON object, unwrapping one level of string
// encoding ("{\"charges\":...}") left behind by older writers.
func decodeObject(data []byte) (map[string]any, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case string:
		var inner any
		dec := json.NewDecoder(bytes.NewReader([]byte(t)))
		dec.UseNumber()
		if err := dec.Decode(&inner); err != nil {
			return nil, false
		}
		m, ok := inner.(map[string]any)
		return m, ok
	}
	return nil, false
}

var (
	chargesKeys    = []string{"charges"}
	salesTaxesKeys = []string{"sales_taxes", "salesTaxes", "taxes"}
	totalsKeys     = []string{"totals"}

	chargeCategoryKeys = map[ChargeCategory][]string{
		ChargeFreight:      {"freight", "freight_charges", "freightCharges"},
		ChargePacking:      {"packing", "packing_charges", "packingCharges"},
		ChargeCustomDuties: {"custom_duties", "customs", "customs_duties", "customDuties"},
		ChargeOther:        {"other", "other_charges", "otherCharges"},
	}
	taxSlotKeys = map[TaxSlot][]string{
		SalesTax1: {"sales_tax_1", "salesTax1", "tax1", "tax_1"},
		SalesTax2: {"sales_tax_2", "salesTax2", "tax2", "tax_2"},
	}

	percentageKeys = []string{"percentage", "percent"}
	amountKeys     = []string{"amount"}
	taxableKeys    = []string{"taxable", "is_taxable", "isTaxable"}
)

func parseBreakdownMap(m map[string]any) FinancialBreakdown {
	var b FinancialBreakdown

	charges := nestedMap(m, chargesKeys...)
	for _, cat := range ChargeCategories {
		leaf := nestedMap(charges, chargeCategoryKeys[cat]...)
		*b.Charges.Line(cat) = ChargeLine{
			Percentage: ToNumberOrNull(lookup(leaf, percentageKeys...)),
			Amount:     ToNumberOrNull(lookup(leaf, amountKeys...)),
			Taxable:    ToBoolean(lookup(leaf, taxableKeys...)),
		}
	}

	taxes := nestedMap(m, salesTaxesKeys...)
	for _, slot := range TaxSlots {
		leaf := nestedMap(taxes, taxSlotKeys[slot]...)
		*b.SalesTaxes.Line(slot) = SalesTaxLine{
			Percentage: ToNumberOrNull(lookup(leaf, percentageKeys...)),
			Amount:     ToNumberOrNull(lookup(leaf, amountKeys...)),
		}
	}

	b.Totals = parseTotals(nestedMap(m, totalsKeys...))
	return b
}

func parseTotals(m map[string]any) BreakdownTotals {
	t := BreakdownTotals{
		ItemTotal:    ToNumberOrNull(lookup(m, "item_total", "itemTotal")),
		ChargesTotal: ToNumberOrNull(lookup(m, "charges_total", "chargesTotal")),
		TaxTotal:     ToNumberOrNull(lookup(m, "tax_total", "taxTotal")),
		InvoiceTotal: ToNumberOrNull(lookup(m, FieldTotalInvoiceAmount, "totalInvoiceAmount")),
	}
	for _, key := range documentTotalFields {
		if _, ok := m[key]; ok {
			t.TotalField = key
			t.DocumentTotal = ToNumberOrNull(m[key])
			break
		}
	}
	return t
}

// lookup returns the first non-nil value among keys.
func lookup(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// nestedMap returns the first object-valued entry among keys, or an empty map.
func nestedMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if child, ok := m[k].(map[string]any); ok {
			return child
		}
	}
	return map[string]any{}
}
