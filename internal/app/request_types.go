package app

import (
	"procurement-backoffice/internal/core"
)

// CalculateRequest is the input of CalculateBreakdown. Numeric inputs are
// accepted as numbers or strings; blanks and garbage count as absent.
type CalculateRequest struct {
	DocumentType core.DocumentType `json:"document_type" jsonschema:"enum=PURCHASE_ORDER,enum=CHANGE_ORDER,enum=INVOICE" jsonschema_description:"Document type; selects the profile together with kind"`
	Kind         core.DocumentKind `json:"kind" jsonschema:"enum=MATERIAL,enum=LABOR" jsonschema_description:"Line item variant: MATERIAL items use total, LABOR items use po_amount or co_amount"`
	Fields       map[string]any    `json:"fields,omitempty" jsonschema_description:"Flat header fields such as freight_charges_percentage, freight_charges_amount, freight_charges_taxable, sales_tax_1_percentage"`
	Items        []map[string]any  `json:"items,omitempty" jsonschema_description:"Raw line item payloads; missing fields are filled by the sanitizer"`

	AdvancePaymentDeduction any `json:"advance_payment_deduction,omitempty" jsonschema_description:"Amount subtracted from the computed total"`
	HoldbackDeduction       any `json:"holdback_deduction,omitempty" jsonschema_description:"Retention amount subtracted from the computed total"`
	TotalOverride           any `json:"total_override,omitempty" jsonschema_description:"Manually entered total; honoured only for editable-total document types"`
}

// ReplaceItemsRequest is the input of ReplaceLineItems.
type ReplaceItemsRequest struct {
	DocumentID string
	Items      []map[string]any
	User       string
}

// SetTotalRequest is the input of SetTotalOverride. A null Total clears the override.
type SetTotalRequest struct {
	DocumentID string
	Total      any
	User       string
}

// TransitionRequest is the input of TransitionStatus.
type TransitionRequest struct {
	DocumentID string
	Status     string
	User       string
}
