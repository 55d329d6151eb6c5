package app

import (
	"procurement-backoffice/internal/core"

	"github.com/shopspring/decimal"
)

// BreakdownResult is returned by CalculateBreakdown.
type BreakdownResult struct {
	DocumentType   core.DocumentType       `json:"document_type"`
	Kind           core.DocumentKind       `json:"kind"`
	Profile        core.Profile            `json:"profile"`
	Breakdown      core.FinancialBreakdown `json:"financial_breakdown"`
	Fields         core.FlatBreakdown      `json:"fields"`
	Reconciliation core.Reconciliation     `json:"reconciliation"`
	MaterialItems  []core.MaterialItem     `json:"material_items,omitempty"`
	LaborItems     []core.LaborItem        `json:"labor_items,omitempty"`
}

// DocumentResult is returned by the document operations. Fields carries the
// flat breakdown with live totals.
type DocumentResult struct {
	Document       *core.Document      `json:"document"`
	Fields         core.FlatBreakdown  `json:"fields"`
	Reconciliation core.Reconciliation `json:"reconciliation"`
}

// ExpectedCostResult is returned by ExpectedCosts.
type ExpectedCostResult struct {
	DocumentID     string             `json:"document_id"`
	DocumentNumber string             `json:"document_number"`
	DocumentType   core.DocumentType  `json:"document_type"`
	Kind           core.DocumentKind  `json:"kind"`
	Lines          []ExpectedCostLine `json:"lines"`
	Total          decimal.Decimal    `json:"total"`
}

// ExpectedCostLine is one line item's landed cost.
type ExpectedCostLine struct {
	UUID     string `json:"uuid"`
	ItemName string `json:"item_name"`
	CostCode string `json:"cost_code,omitempty"`
	core.LineAllocation
}
