package core

import "github.com/shopspring/decimal"

// MaterialItem is the canonical stored shape of a material line.
type MaterialItem struct {
	UUID           string          `json:"uuid"`
	ItemName       string          `json:"item_name"`
	Description    string          `json:"description"`
	CostCode       string          `json:"cost_code"`
	ItemType       string          `json:"item_type"`
	Division       string          `json:"division"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	ApprovalChecks []string        `json:"approval_checks"`
	Metadata       map[string]any  `json:"metadata"`
	IsActive       bool            `json:"is_active"`
	OrderIndex     int             `json:"order_index"`
}

// LineTotal is the item's contribution to the item total. Inactive lines contribute nothing.
func (m MaterialItem) LineTotal() decimal.Decimal {
	if !m.IsActive {
		return decimal.Zero
	}
	return m.Total
}

// LaborItem is the canonical stored shape of a labor line. It carries a
// budgeted amount and a change amount instead of quantity and unit price.
type LaborItem struct {
	UUID           string          `json:"uuid"`
	ItemName       string          `json:"item_name"`
	Description    string          `json:"description"`
	CostCode       string          `json:"cost_code"`
	ItemType       string          `json:"item_type"`
	Division       string          `json:"division"`
	POAmount       decimal.Decimal `json:"po_amount"`
	COAmount       decimal.Decimal `json:"co_amount"`
	ApprovalChecks []string        `json:"approval_checks"`
	Metadata       map[string]any  `json:"metadata"`
	IsActive       bool            `json:"is_active"`
	OrderIndex     int             `json:"order_index"`
}

// BudgetTotal is the po_amount contribution used on purchase orders and invoices.
func (l LaborItem) BudgetTotal() decimal.Decimal {
	if !l.IsActive {
		return decimal.Zero
	}
	return l.POAmount
}

// ChangeTotal is the co_amount contribution used on change orders.
func (l LaborItem) ChangeTotal() decimal.Decimal {
	if !l.IsActive {
		return decimal.Zero
	}
	return l.COAmount
}
