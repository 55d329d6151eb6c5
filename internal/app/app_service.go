package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procurement-backoffice/internal/core"

	"github.com/sirupsen/logrus"
)

const systemUser = "system"

type appService struct {
	store     core.DocumentStore
	profiles  core.ProfileSet
	sanitizer core.Sanitizer
	log       *logrus.Logger
	now       func() time.Time
}

// Option customises an appService.
type Option func(*appService)

// WithSanitizer replaces the line item sanitizer (and its id generator).
func WithSanitizer(s core.Sanitizer) Option {
	return func(a *appService) { a.sanitizer = s }
}

// WithClock replaces the clock used for audit entries.
func WithClock(now func() time.Time) Option {
	return func(a *appService) { a.now = now }
}

// NewAppService constructs an appService that satisfies ApplicationService.
// store may be nil, in which case only CalculateBreakdown is available.
func NewAppService(store core.DocumentStore, profiles core.ProfileSet, log *logrus.Logger, opts ...Option) ApplicationService {
	if profiles == nil {
		profiles = core.DefaultProfiles()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &appService{
		store:     store,
		profiles:  profiles,
		sanitizer: core.NewSanitizer(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateBreakdown computes a breakdown without touching storage.
func (s *appService) CalculateBreakdown(ctx context.Context, req CalculateRequest) (*BreakdownResult, error) {
	if !req.DocumentType.IsValid() || !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type/kind %q/%q", ErrInvalidRequest, req.DocumentType, req.Kind)
	}
	p := s.profiles.Lookup(req.DocumentType, req.Kind)

	doc := &core.Document{
		Type:                    req.DocumentType,
		Kind:                    req.Kind,
		Header:                  req.Fields,
		AdvancePaymentDeduction: core.ToNumberOrZero(req.AdvancePaymentDeduction),
		HoldbackDeduction:       core.ToNumberOrZero(req.HoldbackDeduction),
		Amount:                  core.ToNumberOrNull(req.TotalOverride),
	}
	for i, raw := range req.Items {
		if req.Kind == core.Labor {
			doc.LaborItems = append(doc.LaborItems, s.sanitizer.Labor(raw, i))
		} else {
			doc.MaterialItems = append(doc.MaterialItems, s.sanitizer.Material(raw, i))
		}
	}

	c := doc.Recompute(p)
	return &BreakdownResult{
		DocumentType:   req.DocumentType,
		Kind:           req.Kind,
		Profile:        p,
		Breakdown:      c.Breakdown,
		Fields:         core.Flatten(c.Breakdown),
		Reconciliation: c.Reconciliation,
		MaterialItems:  doc.MaterialItems,
		LaborItems:     doc.LaborItems,
	}, nil
}

// GetDocument loads a document and decorates it with live totals.
func (s *appService) GetDocument(ctx context.Context, id string) (*DocumentResult, error) {
	doc, p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return documentResult(doc, p, doc.Preview(p)), nil
}

// RecalculateDocument recomputes and persists the breakdown.
func (s *appService) RecalculateDocument(ctx context.Context, id string) (*DocumentResult, error) {
	doc, p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c := doc.Recompute(p)
	if err := s.store.SaveDocument(ctx, doc, false); err != nil {
		return nil, fmt.Errorf("save recalculated document %s: %w", id, err)
	}
	s.logCalculation(doc, c, "document recalculated")
	return documentResult(doc, p, c), nil
}

// ReplaceLineItems stores a complete replacement item list and recalculates.
func (s *appService) ReplaceLineItems(ctx context.Context, req ReplaceItemsRequest) (*DocumentResult, error) {
	doc, p, err := s.load(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	c := doc.ReplaceItems(req.Items, s.sanitizer, p, userOrSystem(req.User), s.now())
	if err := s.store.SaveDocument(ctx, doc, true); err != nil {
		return nil, fmt.Errorf("save line items of document %s: %w", req.DocumentID, err)
	}
	s.logCalculation(doc, c, "line items replaced")
	return documentResult(doc, p, c), nil
}

// SetTotalOverride sets or clears the manual total of an editable-total document.
func (s *appService) SetTotalOverride(ctx context.Context, req SetTotalRequest) (*DocumentResult, error) {
	doc, p, err := s.load(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	c, err := doc.ApplyTotalOverride(core.ToNumberOrNull(req.Total), p, userOrSystem(req.User), s.now())
	if err != nil {
		return nil, fmt.Errorf("document %s (%s): %w", req.DocumentID, doc.Type, err)
	}
	if err := s.store.SaveDocument(ctx, doc, false); err != nil {
		return nil, fmt.Errorf("save total override of document %s: %w", req.DocumentID, err)
	}
	s.logCalculation(doc, c, "total override updated")
	return documentResult(doc, p, c), nil
}

// TransitionStatus moves a document to a new status. The breakdown is
// recomputed so an approved document carries current totals.
func (s *appService) TransitionStatus(ctx context.Context, req TransitionRequest) (*DocumentResult, error) {
	target := core.DocumentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, req.Status)
	}
	doc, p, err := s.load(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := doc.TransitionTo(target, userOrSystem(req.User), s.now()); err != nil {
		return nil, err
	}
	c := doc.Recompute(p)
	if err := s.store.SaveDocument(ctx, doc, false); err != nil {
		return nil, fmt.Errorf("save status of document %s: %w", req.DocumentID, err)
	}
	s.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"status":      doc.Status,
		"user":        userOrSystem(req.User),
	}).Info("document status changed")
	return documentResult(doc, p, c), nil
}

// ExpectedCosts allocates the live breakdown across the line items.
func (s *appService) ExpectedCosts(ctx context.Context, id string) (*ExpectedCostResult, error) {
	doc, p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Recompute(p)
	alloc := doc.ExpectedCosts()

	result := &ExpectedCostResult{
		DocumentID:     doc.ID,
		DocumentNumber: doc.Number,
		DocumentType:   doc.Type,
		Kind:           doc.Kind,
		Lines:          make([]ExpectedCostLine, 0, len(alloc.Lines)),
		Total:          alloc.Total,
	}
	for i, a := range alloc.Lines {
		line := ExpectedCostLine{LineAllocation: a}
		if doc.Kind == core.Labor {
			line.UUID, line.ItemName, line.CostCode = doc.LaborItems[i].UUID, doc.LaborItems[i].ItemName, doc.LaborItems[i].CostCode
		} else {
			line.UUID, line.ItemName, line.CostCode = doc.MaterialItems[i].UUID, doc.MaterialItems[i].ItemName, doc.MaterialItems[i].CostCode
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

func (s *appService) load(ctx context.Context, id string) (*core.Document, core.Profile, error) {
	if s.store == nil {
		return nil, core.Profile{}, ErrStoreUnavailable
	}
	if strings.TrimSpace(id) == "" {
		return nil, core.Profile{}, fmt.Errorf("%w: document id is required", ErrInvalidRequest)
	}
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, core.Profile{}, err
	}
	return doc, s.profiles.Lookup(doc.Type, doc.Kind), nil
}

func (s *appService) logCalculation(doc *core.Document, c core.Calculation, msg string) {
	s.log.WithFields(logrus.Fields{
		"document_id":      doc.ID,
		"document_type":    doc.Type,
		"total_field":      c.Breakdown.Totals.TotalField,
		"total":            c.Reconciliation.DocumentTotal.String(),
		"override_applied": c.Reconciliation.OverrideApplied,
	}).Info(msg)
}

func documentResult(doc *core.Document, p core.Profile, c core.Calculation) *DocumentResult {
	return &DocumentResult{
		Document:       doc,
		Fields:         core.Decorate(doc.Breakdown, p).WithTotals(c),
		Reconciliation: c.Reconciliation,
	}
}

func userOrSystem(user string) string {
	if u := strings.TrimSpace(user); u != "" {
		return u
	}
	return systemUser
}
