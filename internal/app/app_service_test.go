package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"procurement-backoffice/internal/app"
	"procurement-backoffice/internal/core"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*core.Document)
	return doc, args.Error(1)
}

func (m *mockStore) SaveDocument(ctx context.Context, d *core.Document, replaceItems bool) error {
	args := m.Called(ctx, d, replaceItems)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func newService(store core.DocumentStore) app.ApplicationService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	n := 0
	ids := core.Sanitizer{NewID: func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}}
	return app.NewAppService(store, core.DefaultProfiles(), logger,
		app.WithSanitizer(ids),
		app.WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s", want, got)
}

func TestCalculateBreakdown(t *testing.T) {
	svc := newService(nil)

	res, err := svc.CalculateBreakdown(context.Background(), app.CalculateRequest{
		DocumentType: core.PurchaseOrder,
		Kind:         core.Material,
		Fields: map[string]any{
			"freight_charges_percentage": "5",
			"freight_charges_taxable":    true,
			"packing_charges_percentage": json.Number("3"),
			"sales_tax_1_percentage":     "10",
			"sales_tax_2_percentage":     5,
		},
		Items: []map[string]any{
			{"item_name": "Cement", "quantity": 10, "unit_price": "60"},
			{"name": "Sand", "total": "400"},
		},
		AdvancePaymentDeduction: "250",
	})
	require.NoError(t, err)

	assertDecimal(t, "1000", res.Breakdown.Totals.ItemTotal.Decimal)
	assertDecimal(t, "80", res.Breakdown.Totals.ChargesTotal.Decimal)
	assertDecimal(t, "157.5", res.Breakdown.Totals.TaxTotal.Decimal)
	assertDecimal(t, "987.5", res.Reconciliation.DocumentTotal)
	require.Len(t, res.MaterialItems, 2)
	assert.Equal(t, "item-1", res.MaterialItems[0].UUID)
	assert.Equal(t, "Sand", res.MaterialItems[1].ItemName)

	fields := res.Fields.Fields()
	assert.Contains(t, fields, core.FieldTotalPOAmount)
	assert.True(t, dec("987.5").Equal(fields[core.FieldTotalPOAmount].(decimal.Decimal)))
}

func TestCalculateBreakdown_InvoiceOverride(t *testing.T) {
	svc := newService(nil)
	req := app.CalculateRequest{
		DocumentType:  core.Invoice,
		Kind:          core.Material,
		Fields:        map[string]any{"sales_tax_1_percentage": "13"},
		Items:         []map[string]any{{"total": "5000"}},
		TotalOverride: "6000",
	}

	res, err := svc.CalculateBreakdown(context.Background(), req)
	require.NoError(t, err)
	assertDecimal(t, "5650", res.Reconciliation.FinalTotal)
	assertDecimal(t, "6000", res.Reconciliation.DocumentTotal)

	// The same override on a purchase order is ignored.
	req.DocumentType = core.PurchaseOrder
	res, err = svc.CalculateBreakdown(context.Background(), req)
	require.NoError(t, err)
	assertDecimal(t, "5650", res.Reconciliation.DocumentTotal)
}

func TestCalculateBreakdown_InvalidType(t *testing.T) {
	_, err := newService(nil).CalculateBreakdown(context.Background(), app.CalculateRequest{DocumentType: "QUOTE", Kind: core.Material})
	assert.ErrorIs(t, err, app.ErrInvalidRequest)
}

func TestDocumentOperations_WithoutStore(t *testing.T) {
	svc := newService(nil)
	_, err := svc.GetDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, app.ErrStoreUnavailable)
	_, err = svc.ExpectedCosts(context.Background(), "doc-1")
	assert.ErrorIs(t, err, app.ErrStoreUnavailable)
}

func storedPO() *core.Document {
	return &core.Document{
		ID:     "doc-1",
		Number: "PO-1001",
		Type:   core.PurchaseOrder,
		Kind:   core.Material,
		Status: core.StatusDraft,
		Header: map[string]any{"freight_charges_amount": "100"},
		// Stale stored totals from before the last item edit.
		Breakdown: core.ParseBreakdown(`{"charges":{"freight":{"amount":100}},"totals":{"item_total":10,"total_po_amount":110}}`),
		MaterialItems: []core.MaterialItem{
			{UUID: "a", ItemName: "Pipe", CostCode: "22-100", Total: dec("300"), IsActive: true},
			{UUID: "b", ItemName: "Valve", Total: dec("700"), IsActive: true},
		},
	}
}

func TestGetDocument_LiveTotals(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)

	res, err := newService(store).GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)

	assertDecimal(t, "1000", res.Fields.ItemTotal.Decimal)
	assertDecimal(t, "1100", res.Fields.DocumentTotal.Decimal)
	assertDecimal(t, "100", res.Fields.Charges.Freight.Amount.Decimal)
	// read-only: the stored document is not rewritten
	assertDecimal(t, "10", res.Document.Breakdown.Totals.ItemTotal.Decimal)
	store.AssertNotCalled(t, "SaveDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "missing").Return(nil, core.ErrDocumentNotFound)

	_, err := newService(store).GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
}

func TestRecalculateDocument(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)
	store.On("SaveDocument", mock.Anything, mock.MatchedBy(func(d *core.Document) bool {
		return d.Total.Equal(dec("1100")) && d.Breakdown.Totals.ItemTotal.Decimal.Equal(dec("1000"))
	}), false).Return(nil)

	res, err := newService(store).RecalculateDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assertDecimal(t, "1100", res.Reconciliation.DocumentTotal)
	store.AssertExpectations(t)
}

func TestReplaceLineItems(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)
	store.On("SaveDocument", mock.Anything, mock.Anything, true).Return(nil)

	res, err := newService(store).ReplaceLineItems(context.Background(), app.ReplaceItemsRequest{
		DocumentID: "doc-1",
		Items:      []map[string]any{{"uuid": "a", "item_name": "Pipe", "total": "300"}},
		User:       "pm@example.com",
	})
	require.NoError(t, err)

	doc := res.Document
	require.Len(t, doc.MaterialItems, 1)
	require.Len(t, doc.RemovedItems, 1)
	assert.Equal(t, "b", doc.RemovedItems[0].UUID)
	assertDecimal(t, "400", doc.Total)
	assert.Equal(t, fixedNow, doc.AuditLog[0].Timestamp)
	assert.Equal(t, "pm@example.com", doc.AuditLog[0].User)
	store.AssertExpectations(t)
}

func TestSetTotalOverride(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)

	_, err := newService(store).SetTotalOverride(context.Background(), app.SetTotalRequest{DocumentID: "doc-1", Total: "5"})
	assert.ErrorIs(t, err, core.ErrTotalNotEditable)
	store.AssertNotCalled(t, "SaveDocument", mock.Anything, mock.Anything, mock.Anything)

	invoice := storedPO()
	invoice.ID, invoice.Type = "inv-1", core.Invoice
	store.On("GetDocument", mock.Anything, "inv-1").Return(invoice, nil)
	store.On("SaveDocument", mock.Anything, invoice, false).Return(nil)

	res, err := newService(store).SetTotalOverride(context.Background(), app.SetTotalRequest{DocumentID: "inv-1", Total: "1,250.00"})
	require.NoError(t, err)
	assertDecimal(t, "1250", res.Document.Total)
	assertDecimal(t, "1100", res.Reconciliation.FinalTotal)
	assert.Equal(t, "system", res.Document.AuditLog[0].User)
}

func TestTransitionStatus(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)
	store.On("SaveDocument", mock.Anything, mock.Anything, false).Return(nil)

	svc := newService(store)

	_, err := svc.TransitionStatus(context.Background(), app.TransitionRequest{DocumentID: "doc-1", Status: "approved"})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = svc.TransitionStatus(context.Background(), app.TransitionRequest{DocumentID: "doc-1", Status: "ARCHIVED"})
	assert.ErrorIs(t, err, app.ErrInvalidRequest)

	res, err := svc.TransitionStatus(context.Background(), app.TransitionRequest{DocumentID: "doc-1", Status: "ready", User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, res.Document.Status)
	assertDecimal(t, "1100", res.Document.Total)
	require.Len(t, res.Document.AuditLog, 1)
	assert.Equal(t, "alice", res.Document.AuditLog[0].User)
	store.AssertNumberOfCalls(t, "SaveDocument", 1)
}

func TestExpectedCosts(t *testing.T) {
	store := new(mockStore)
	store.On("GetDocument", mock.Anything, "doc-1").Return(storedPO(), nil)

	res, err := newService(store).ExpectedCosts(context.Background(), "doc-1")
	require.NoError(t, err)

	require.Len(t, res.Lines, 2)
	assert.Equal(t, "Pipe", res.Lines[0].ItemName)
	assert.Equal(t, "22-100", res.Lines[0].CostCode)
	assertDecimal(t, "30", res.Lines[0].Freight)
	assertDecimal(t, "770", res.Lines[1].ExpectedCost)
	assertDecimal(t, "1100", res.Total)
	assert.Equal(t, "PO-1001", res.DocumentNumber)
}

func TestCalculateRequestSchema(t *testing.T) {
	schema := app.CalculateRequestSchema()
	data, err := json.Marshal(schema)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	props, ok := parsed["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"document_type", "kind", "fields", "items", "total_override"} {
		assert.Contains(t, props, key)
	}
}
