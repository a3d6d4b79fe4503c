package deals

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventSink receives domain events for automation rules.
type EventSink interface {
	Fire(ctx context.Context, tenantID uuid.UUID, event string, payload map[string]any)
}

type Service struct {
	repo   Repository
	events EventSink
}

func NewService(repo Repository, events EventSink) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateDealRequest, createdBy uuid.UUID) (*Deal, error) {
	deal := Deal{
		TenantID:      tenantID,
		ContactID:     req.ContactID,
		Title:         req.Title,
		Stage:         StageProspecting,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		ExpectedClose: req.ExpectedClose,
		Notes:         req.Notes,
		CreatedBy:     createdBy,
	}
	id, err := s.repo.Create(ctx, deal)
	if err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	s.fire(ctx, tenantID, "deal.created", map[string]any{"deal_id": id.String()})
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDealRequest) (*Deal, error) {
	updates := make(map[string]any)
	if req.ContactID != nil {
		updates["contact_id"] = *req.ContactID
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.ExpectedClose != nil {
		updates["expected_close"] = *req.ExpectedClose
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, tenantID, id)
	}
	if err := s.repo.Update(ctx, tenantID, id, updates); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

// ChangeStage moves a deal through the pipeline, firing an automation event
// on success.
func (s *Service) ChangeStage(ctx context.Context, tenantID, id uuid.UUID, target string) (*Deal, error) {
	deal, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateStageChange(deal.Stage, target); err != nil {
		return nil, fmt.Errorf("deal %s -> %s: %w", deal.Stage, target, err)
	}
	if err := s.repo.UpdateStage(ctx, tenantID, id, target); err != nil {
		return nil, err
	}
	s.fire(ctx, tenantID, "deal.stage_changed", map[string]any{
		"deal_id": id.String(),
		"from":    deal.Stage,
		"to":      target,
		"amount":  deal.Amount,
	})
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Deal, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req ListDealsRequest) ([]Deal, int, error) {
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
