package leads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ConversionSink creates the records a converted lead turns into. Implemented
// by the integration hooks so this package does not depend on contacts/deals.
type ConversionSink interface {
	ContactFromLead(ctx context.Context, lead Lead, actor uuid.UUID) (uuid.UUID, error)
	DealFromLead(ctx context.Context, lead Lead, contactID uuid.UUID, title string, amount float64, actor uuid.UUID) (uuid.UUID, error)
}

// EventSink receives domain events for automation rules. Nil-safe no-op when
// automations are disabled.
type EventSink interface {
	Fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any)
}

type Service struct {
	repo   Repository
	sink   ConversionSink
	events EventSink
}

func NewService(repo Repository, sink ConversionSink, events EventSink) *Service {
	return &Service{repo: repo, sink: sink, events: events}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateLeadRequest, createdBy uuid.UUID) (*Lead, error) {
	lead := Lead{
		TenantID:  tenantID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Source:    req.Source,
		Status:    StatusNew,
		OwnerID:   req.OwnerID,
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}
	id, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	created, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.fire(ctx, tenantID, "lead.created", map[string]any{"lead_id": id.String()})
	return created, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateLeadRequest) (*Lead, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.OwnerID != nil {
		updates["owner_id"] = *req.OwnerID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, tenantID, id)
	}
	if err := s.repo.Update(ctx, tenantID, id, updates); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

// Transition moves the lead along the pipeline. Conversion must go through
// Convert so the follow-on records are created.
func (s *Service) Transition(ctx context.Context, tenantID, id uuid.UUID, target string) (*Lead, error) {
	lead, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(lead.Status, target); err != nil {
		return nil, fmt.Errorf("lead %s -> %s: %w", lead.Status, target, err)
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, target); err != nil {
		return nil, err
	}
	s.fire(ctx, tenantID, "lead.status_changed", map[string]any{
		"lead_id": id.String(),
		"from":    lead.Status,
		"to":      target,
	})
	return s.repo.Get(ctx, tenantID, id)
}

// Convert turns a qualified lead into a contact plus an open deal.
func (s *Service) Convert(ctx context.Context, tenantID, id uuid.UUID, req ConvertLeadRequest, actor uuid.UUID) (*Lead, uuid.UUID, uuid.UUID, error) {
	lead, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	if err := ValidateTransition(lead.Status, StatusConverted); err != nil {
		return nil, uuid.Nil, uuid.Nil, fmt.Errorf("lead %s -> %s: %w", lead.Status, StatusConverted, err)
	}

	contactID, err := s.sink.ContactFromLead(ctx, *lead, actor)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, fmt.Errorf("convert lead: contact: %w", err)
	}
	dealID, err := s.sink.DealFromLead(ctx, *lead, contactID, req.DealTitle, req.DealAmount, actor)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, fmt.Errorf("convert lead: deal: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, id, StatusConverted); err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}

	s.fire(ctx, tenantID, "lead.converted", map[string]any{
		"lead_id":    id.String(),
		"contact_id": contactID.String(),
		"deal_id":    dealID.String(),
	})
	converted, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	return converted, contactID, dealID, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Lead, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req ListLeadsRequest) ([]Lead, int, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	return s.repo.List(ctx, tenantID, req)
}

func (s *Service) fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Fire(ctx, tenantID, event, payload)
}
