package invoices

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// EventSink receives domain events for automation matching. A nil sink
// disables event delivery.
type EventSink interface {
	Fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any)
}

// Idempotency guards creation against client retries. Satisfied by
// shared.IdempotencyStore.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo   Repository
	idem   Idempotency
	events EventSink
	locale language.Tag
}

func NewService(repo Repository, idem Idempotency, events EventSink) *Service {
	return &Service{repo: repo, idem: idem, events: events, locale: language.English}
}

func (s *Service) fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any) {
	if s.events != nil {
		s.events.Fire(ctx, tenantID, event, payload)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Create builds an invoice from its lines. Totals are always computed
// server-side from quantity and unit price; client-supplied totals are
// ignored. When idempotencyKey is non-empty a duplicate key returns
// shared.ErrIdempotencyConflict without writing anything.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateInvoiceRequest, idempotencyKey string) (*Invoice, error) {
	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, "invoices"); err != nil {
			return nil, err
		}
	}

	seq, err := s.repo.NextNumber(ctx, tenantID)
	if err != nil {
		s.releaseKey(ctx, idempotencyKey)
		return nil, err
	}

	now := time.Now()
	inv := &Invoice{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ContactID: req.ContactID,
		Number:    invoiceNumber(now, seq),
		Status:    StatusDraft,
		Currency:  strings.ToUpper(req.Currency),
		TaxRate:   req.TaxRate,
		DueAt:     req.DueAt,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, in := range req.Lines {
		inv.Lines = append(inv.Lines, InvoiceLine{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			LineTotal:   round2(in.Quantity * in.UnitPrice),
		})
	}
	for _, l := range inv.Lines {
		inv.Subtotal += l.LineTotal
	}
	inv.Subtotal = round2(inv.Subtotal)
	inv.TaxAmount = round2(inv.Subtotal * inv.TaxRate)
	inv.Total = round2(inv.Subtotal + inv.TaxAmount)

	if err := s.repo.Create(ctx, inv); err != nil {
		s.releaseKey(ctx, idempotencyKey)
		return nil, err
	}
	inv.TotalDisplay = FormatAmount(inv.Currency, inv.Total, s.locale)
	return inv, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key != "" && s.idem != nil {
		_ = s.idem.Delete(ctx, key)
	}
}

func invoiceNumber(now time.Time, seq int) string {
	return fmt.Sprintf("INV-%d-%05d", now.Year(), seq)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	inv.TotalDisplay = FormatAmount(inv.Currency, inv.Total, s.locale)
	return inv, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	items, total, err := s.repo.List(ctx, tenantID, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].TotalDisplay = FormatAmount(items[i].Currency, items[i].Total, s.locale)
	}
	return items, total, nil
}

// ChangeStatus moves an invoice through its lifecycle. Sending stamps
// issued_at and fires invoice.sent.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, target string) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatusChange(inv.Status, target); err != nil {
		return nil, err
	}
	var issuedAt *time.Time
	if target == StatusSent {
		now := time.Now()
		issuedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, target, issuedAt); err != nil {
		return nil, err
	}
	prev := inv.Status
	inv.Status = target
	if issuedAt != nil {
		inv.IssuedAt = issuedAt
	}
	inv.TotalDisplay = FormatAmount(inv.Currency, inv.Total, s.locale)
	if target == StatusSent {
		s.fire(ctx, tenantID, "invoice.sent", map[string]any{
			"invoice_id": inv.ID.String(),
			"number":     inv.Number,
			"total":      inv.Total,
			"currency":   inv.Currency,
			"from":       prev,
		})
	}
	return inv, nil
}
