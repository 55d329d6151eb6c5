package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	PurchaseOrder DocumentType = "PURCHASE_ORDER"
	ChangeOrder   DocumentType = "CHANGE_ORDER"
	Invoice       DocumentType = "INVOICE"
)

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	switch t {
	case PurchaseOrder, ChangeOrder, Invoice:
		return true
	}
	return false
}

// DocumentKind selects the line item variant and totals path.
type DocumentKind string

const (
	Material DocumentKind = "MATERIAL"
	Labor    DocumentKind = "LABOR"
)

// IsValid reports whether k is a known document kind.
func (k DocumentKind) IsValid() bool {
	return k == Material || k == Labor
}

type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "DRAFT"
	StatusReady    DocumentStatus = "READY"
	StatusApproved DocumentStatus = "APPROVED"
	StatusRejected DocumentStatus = "REJECTED"
)

// IsValid reports whether s is a known status.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusReady, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a document in status s may move to target.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusReady
	case StatusReady:
		return target == StatusApproved || target == StatusRejected || target == StatusDraft
	case StatusRejected:
		return target == StatusDraft
	case StatusApproved:
		return false // terminal
	}
	return false
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTotalNotEditable  = errors.New("document total is not editable for this document type")
)

// AuditEntry is one append-only audit log record.
type AuditEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	User        string    `json:"user"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
}

type Attachment struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// RemovedItem records a line item dropped by a replacement save.
type RemovedItem struct {
	UUID      string          `json:"uuid"`
	ItemName  string          `json:"item_name"`
	Total     decimal.Decimal `json:"total"`
	RemovedAt time.Time       `json:"removed_at"`
	RemovedBy string          `json:"removed_by"`
}

// Document is a purchase order, change order or invoice with its breakdown
// and line items. Only the variant matching Kind is populated.
type Document struct {
	ID     string         `json:"id"`
	Type   DocumentType   `json:"type"`
	Kind   DocumentKind   `json:"kind"`
	Number string         `json:"number"`
	Status DocumentStatus `json:"status"`
	// Header holds the flat header fields, including the charge and tax
	// inputs (freight_charges_percentage, sales_tax_1_percentage, ...).
	Header        map[string]any     `json:"header"`
	Breakdown     FinancialBreakdown `json:"financial_breakdown"`
	MaterialItems []MaterialItem     `json:"material_items,omitempty"`
	LaborItems    []LaborItem        `json:"labor_items,omitempty"`
	Attachments   []Attachment       `json:"attachments"`
	RemovedItems  []RemovedItem      `json:"removed_items"`
	AuditLog      []AuditEntry       `json:"audit_log"`

	AdvancePaymentDeduction decimal.Decimal `json:"advance_payment_deduction"`
	HoldbackDeduction       decimal.Decimal `json:"holdback_deduction"`
	// Total is the value of the designated total field (total_po_amount, ...).
	Total decimal.Decimal `json:"total"`
	// Amount is the manually entered total of editable-total document types.
	Amount    decimal.NullDecimal `json:"amount"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ItemTotal sums the active line totals of the populated variant.
func (d *Document) ItemTotal() decimal.Decimal {
	if d.Kind == Labor {
		return SumLineTotals(d.LaborItems, d.laborLineTotal())
	}
	return SumLineTotals(d.MaterialItems, MaterialItem.LineTotal)
}

// ExpectedCosts allocates the document's breakdown across its line items.
func (d *Document) ExpectedCosts() CostAllocation {
	if d.Kind == Labor {
		return ExpectedCosts(d.Breakdown, d.LaborItems, d.laborLineTotal())
	}
	return ExpectedCosts(d.Breakdown, d.MaterialItems, MaterialItem.LineTotal)
}

// laborLineTotal picks co_amount on change orders and po_amount elsewhere.
func (d *Document) laborLineTotal() func(LaborItem) decimal.Decimal {
	if d.Type == ChangeOrder {
		return LaborItem.ChangeTotal
	}
	return LaborItem.BudgetTotal
}

// Preview computes the breakdown the document would get from Recompute
// without modifying it.
func (d *Document) Preview(p Profile) Calculation {
	charges, taxes := MergeChargeFields(d.Header, d.Breakdown.Charges, d.Breakdown.SalesTaxes)
	return Calculate(BreakdownInput{
		ItemTotal:               d.ItemTotal(),
		Charges:                 charges,
		SalesTaxes:              taxes,
		Profile:                 p,
		AdvancePaymentDeduction: d.AdvancePaymentDeduction,
		HoldbackDeduction:       d.HoldbackDeduction,
		Override:                OverrideFrom(d.Breakdown, d.Amount),
	})
}

// Recompute replaces the breakdown and the designated total from the
// current header fields and line items.
func (d *Document) Recompute(p Profile) Calculation {
	c := d.Preview(p)
	d.Breakdown = c.Breakdown
	d.Total = c.Reconciliation.DocumentTotal
	return c
}

// ReplaceItems sanitises a full replacement list, records the items that
// disappeared, and recomputes. Line items are never diffed.
func (d *Document) ReplaceItems(raw []map[string]any, s Sanitizer, p Profile, user string, now time.Time) Calculation {
	before := d.itemSummaries()

	kept := map[string]bool{}
	if d.Kind == Labor {
		items := make([]LaborItem, 0, len(raw))
		for i, r := range raw {
			item := s.Labor(r, i)
			items = append(items, item)
			kept[item.UUID] = true
		}
		d.LaborItems = items
	} else {
		items := make([]MaterialItem, 0, len(raw))
		for i, r := range raw {
			item := s.Material(r, i)
			items = append(items, item)
			kept[item.UUID] = true
		}
		d.MaterialItems = items
	}

	removed := 0
	for _, it := range before {
		if kept[it.UUID] {
			continue
		}
		it.RemovedAt = now
		it.RemovedBy = user
		d.RemovedItems = append(d.RemovedItems, it)
		removed++
	}

	d.appendAudit(now, user, "items_replaced",
		fmt.Sprintf("%d line items saved, %d removed", len(raw), removed))
	return d.Recompute(p)
}

// ApplyTotalOverride records a manually entered total for editable-total
// document types. It is written both to the document and to
// totals.total_invoice_amount so it survives a round trip. A null value
// clears the override and the live total takes over again.
func (d *Document) ApplyTotalOverride(value decimal.NullDecimal, p Profile, user string, now time.Time) (Calculation, error) {
	if !p.AllowEditTotal {
		return Calculation{}, ErrTotalNotEditable
	}
	d.Amount = value
	d.Breakdown.Totals.InvoiceTotal = value
	c := d.Recompute(p)

	desc := "manual total cleared"
	if value.Valid {
		desc = "manual total set to " + value.Decimal.StringFixed(2)
	}
	d.appendAudit(now, user, "total_override", desc)
	return c, nil
}

// TransitionTo moves the document to target, appending an audit entry.
func (d *Document) TransitionTo(target DocumentStatus, user string, now time.Time) error {
	from := d.Status
	if from == "" {
		from = StatusDraft
	}
	if !from.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}
	d.Status = target
	d.appendAudit(now, user, "status_changed", fmt.Sprintf("%s -> %s", from, target))
	return nil
}

func (d *Document) appendAudit(now time.Time, user, action, description string) {
	d.AuditLog = append(d.AuditLog, AuditEntry{Timestamp: now, User: user, Action: action, Description: description})
	d.UpdatedAt = now
}

func (d *Document) itemSummaries() []RemovedItem {
	var out []RemovedItem
	if d.Kind == Labor {
		total := d.laborLineTotal()
		for _, it := range d.LaborItems {
			out = append(out, RemovedItem{UUID: it.UUID, ItemName: it.ItemName, Total: total(it)})
		}
		return out
	}
	for _, it := range d.MaterialItems {
		out = append(out, RemovedItem{UUID: it.UUID, ItemName: it.ItemName, Total: it.Total})
	}
	return out
}
