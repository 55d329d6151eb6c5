package core_test

import (
	"errors"
	"testing"
	"time"

	"procurement-backoffice/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestDocumentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to core.DocumentStatus
		ok       bool
	}{
		{core.StatusDraft, core.StatusReady, true},
		{core.StatusDraft, core.StatusApproved, false},
		{core.StatusReady, core.StatusApproved, true},
		{core.StatusReady, core.StatusRejected, true},
		{core.StatusReady, core.StatusDraft, true},
		{core.StatusRejected, core.StatusDraft, true},
		{core.StatusRejected, core.StatusApproved, false},
		{core.StatusApproved, core.StatusDraft, false},
		{core.StatusApproved, core.StatusRejected, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDocument_TransitionTo(t *testing.T) {
	d := &core.Document{Status: core.StatusDraft}
	require.NoError(t, d.TransitionTo(core.StatusReady, "alice", now))
	require.NoError(t, d.TransitionTo(core.StatusApproved, "bob", now))

	err := d.TransitionTo(core.StatusDraft, "bob", now)
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
	assert.Equal(t, core.StatusApproved, d.Status)

	require.Len(t, d.AuditLog, 2)
	assert.Equal(t, "status_changed", d.AuditLog[1].Action)
	assert.Equal(t, "bob", d.AuditLog[1].User)
	assert.Equal(t, "READY -> APPROVED", d.AuditLog[1].Description)
}

func TestDocument_ReplaceItems(t *testing.T) {
	p := core.DefaultProfiles().Lookup(core.PurchaseOrder, core.Material)
	d := &core.Document{
		ID:     "po-1",
		Type:   core.PurchaseOrder,
		Kind:   core.Material,
		Header: map[string]any{"freight_charges_percentage": 10, "freight_charges_taxable": true, "sales_tax_1_percentage": 5},
		MaterialItems: []core.MaterialItem{
			{UUID: "keep", ItemName: "Kept", Total: dec("100"), IsActive: true},
			{UUID: "drop", ItemName: "Dropped", Total: dec("40"), IsActive: true},
		},
	}

	c := d.ReplaceItems([]map[string]any{
		{"uuid": "keep", "item_name": "Kept", "quantity": 2, "unit_price": 150},
		{"item_name": "New", "total": "500"},
	}, fixedIDs(), p, "carol", now)

	require.Len(t, d.MaterialItems, 2)
	assert.Equal(t, 0, d.MaterialItems[0].OrderIndex)
	assert.Equal(t, 1, d.MaterialItems[1].OrderIndex)
	assert.Equal(t, "gen-1", d.MaterialItems[1].UUID)

	require.Len(t, d.RemovedItems, 1)
	assert.Equal(t, "drop", d.RemovedItems[0].UUID)
	assert.Equal(t, "carol", d.RemovedItems[0].RemovedBy)
	assertDecimal(t, "40", d.RemovedItems[0].Total)

	// 800 items, 80 taxable freight, 5% of 880
	assertDecimal(t, "800", c.Breakdown.Totals.ItemTotal.Decimal)
	assertDecimal(t, "80", c.Charges.ChargesTotal)
	assertDecimal(t, "44", c.Charges.TaxTotal)
	assertDecimal(t, "924", d.Total)
	assert.Equal(t, d.Breakdown, c.Breakdown)

	require.Len(t, d.AuditLog, 1)
	assert.Equal(t, "items_replaced", d.AuditLog[0].Action)
}

func TestDocument_RecomputeFollowsHeaderEdits(t *testing.T) {
	p := core.DefaultProfiles().Lookup(core.ChangeOrder, core.Material)
	d := &core.Document{
		Type:          core.ChangeOrder,
		Kind:          core.Material,
		Header:        map[string]any{"sales_tax_1_percentage": "10"},
		MaterialItems: []core.MaterialItem{{UUID: "a", Total: dec("200"), IsActive: true}},
	}
	d.Recompute(p)
	assertDecimal(t, "220", d.Total)

	d.Header["sales_tax_1_percentage"] = "15"
	d.Recompute(p)
	assertDecimal(t, "230", d.Total)
	assert.Equal(t, core.FieldTotalCOAmount, d.Breakdown.Totals.TotalField)
}

func TestDocument_TotalOverride(t *testing.T) {
	p := core.DefaultProfiles().Lookup(core.Invoice, core.Material)
	d := &core.Document{
		Type:          core.Invoice,
		Kind:          core.Material,
		Header:        map[string]any{"sales_tax_1_percentage": "13"},
		Breakdown:     core.ParseBreakdown(`{"totals": {"total_invoice_amount": 6000}}`),
		MaterialItems: []core.MaterialItem{{UUID: "a", Total: dec("5000"), IsActive: true}},
	}

	c := d.Recompute(p)
	assertDecimal(t, "5650", c.Reconciliation.FinalTotal)
	assertDecimal(t, "6000", d.Total)
	assertDecimal(t, "6000", c.Reconciliation.EditableTotal.Decimal)

	// A later upstream edit keeps the override until the user changes it.
	d.Header["sales_tax_1_percentage"] = "5"
	d.Recompute(p)
	assertDecimal(t, "6000", d.Total)

	c, err := d.ApplyTotalOverride(decimal.NewNullDecimal(dec("2500")), p, "dave", now)
	require.NoError(t, err)
	assertDecimal(t, "2500", d.Total)
	assertDecimal(t, "2500", d.Amount.Decimal)
	assertDecimal(t, "2500", d.Breakdown.Totals.InvoiceTotal.Decimal)
	assertDecimal(t, "5250", c.Reconciliation.FinalTotal)

	c, err = d.ApplyTotalOverride(decimal.NullDecimal{}, p, "dave", now)
	require.NoError(t, err)
	assertNull(t, c.Reconciliation.EditableTotal)
	assertDecimal(t, "5250", d.Total)
	assert.Len(t, d.AuditLog, 2)
}

func TestDocument_TotalOverrideRejectedWhenNotEditable(t *testing.T) {
	p := core.DefaultProfiles().Lookup(core.PurchaseOrder, core.Material)
	d := &core.Document{Type: core.PurchaseOrder, Kind: core.Material}
	_, err := d.ApplyTotalOverride(decimal.NewNullDecimal(dec("1")), p, "erin", now)
	assert.ErrorIs(t, err, core.ErrTotalNotEditable)
	assert.Empty(t, d.AuditLog)
}

func TestDocument_DeductionsAndOverrideFromAmount(t *testing.T) {
	p := core.DefaultProfiles().Lookup(core.Invoice, core.Labor)
	d := &core.Document{
		Type:                    core.Invoice,
		Kind:                    core.Labor,
		LaborItems:              []core.LaborItem{{UUID: "l", POAmount: dec("1000"), COAmount: dec("50"), IsActive: true}},
		AdvancePaymentDeduction: dec("100"),
		HoldbackDeduction:       dec("50"),
	}
	c := d.Recompute(p)
	assertDecimal(t, "850", d.Total)
	assert.False(t, c.Reconciliation.OverrideApplied)

	d.Amount = decimal.NewNullDecimal(dec("400"))
	d.Breakdown.Totals.InvoiceTotal = decimal.NullDecimal{}
	d.Recompute(p)
	assertDecimal(t, "400", d.Total)
}

func TestProfiles(t *testing.T) {
	profiles := core.DefaultProfiles()
	assert.True(t, profiles.Lookup(core.Invoice, core.Material).AllowEditTotal)
	assert.False(t, profiles.Lookup(core.PurchaseOrder, core.Material).AllowEditTotal)
	assert.True(t, profiles.Lookup(core.ChangeOrder, core.Labor).HideCharges)
	assert.Equal(t, core.FieldTotalCOAmount, profiles.Lookup(core.ChangeOrder, core.Material).TotalField)
	assert.Equal(t, "total_amount", profiles.Lookup("QUOTE", core.Material).TotalField)

	for key, p := range profiles {
		assert.False(t, p.TrustStoredTotals, key)
	}
}
