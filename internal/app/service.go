package app

import (
	"context"
	"errors"
)

var (
	// ErrInvalidRequest marks input the service rejects before touching storage.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStoreUnavailable is returned by document operations when the service
	// runs without a database.
	ErrStoreUnavailable = errors.New("document store not configured")
)

// ApplicationService is the single interface the CLI and web adapters call.
// Implementations contain no display logic.
type ApplicationService interface {
	// CalculateBreakdown computes a breakdown from flat header fields and raw
	// line items without reading or writing storage.
	CalculateBreakdown(ctx context.Context, req CalculateRequest) (*BreakdownResult, error)

	// GetDocument loads a document. Charge and tax leaves come from storage;
	// summary totals are recomputed from the current line items.
	GetDocument(ctx context.Context, id string) (*DocumentResult, error)

	// RecalculateDocument recomputes and persists a document's breakdown and
	// designated total.
	RecalculateDocument(ctx context.Context, id string) (*DocumentResult, error)

	// ReplaceLineItems sanitizes and stores a complete replacement item list,
	// then recalculates. Items missing from the list are recorded as removed.
	ReplaceLineItems(ctx context.Context, req ReplaceItemsRequest) (*DocumentResult, error)

	// SetTotalOverride sets or clears the manually entered total of an
	// editable-total document (invoices).
	SetTotalOverride(ctx context.Context, req SetTotalRequest) (*DocumentResult, error)

	// TransitionStatus moves a document through DRAFT, READY, APPROVED, REJECTED.
	TransitionStatus(ctx context.Context, req TransitionRequest) (*DocumentResult, error)

	// ExpectedCosts allocates a document's charges and taxes across its line
	// items in proportion to each line total.
	ExpectedCosts(ctx context.Context, id string) (*ExpectedCostResult, error)
}
