package automations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateRuleRequest, createdBy uuid.UUID) (*Rule, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	rule := Rule{
		TenantID:     tenantID,
		Name:         req.Name,
		TriggerEvent: req.TriggerEvent,
		Action:       req.Action,
		Params:       params,
		Enabled:      enabled,
		CreatedBy:    createdBy,
	}
	id, err := s.repo.Create(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("create automation rule: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateRuleRequest) (*Rule, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TriggerEvent != nil {
		updates["trigger_event"] = *req.TriggerEvent
	}
	if req.Action != nil {
		updates["action"] = *req.Action
	}
	if req.Params != nil {
		updates["params"] = *req.Params
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, tenantID, id)
	}
	if err := s.repo.Update(ctx, tenantID, id, updates); err != nil {
		return nil, fmt.Errorf("update automation rule: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Rule, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req ListRulesRequest) ([]Rule, int, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	return s.repo.List(ctx, tenantID, req)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}
