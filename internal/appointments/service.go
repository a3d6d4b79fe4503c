package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-crm/meridian/internal/shared"
)

type Service struct {
	repo Repository
	poll singleflight.Group
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateAppointmentRequest, createdBy uuid.UUID) (*Appointment, error) {
	appt := Appointment{
		TenantID:  tenantID,
		ContactID: req.ContactID,
		Title:     req.Title,
		Notes:     req.Notes,
		Location:  req.Location,
		Status:    StatusScheduled,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		CreatedBy: createdBy,
	}
	id, err := s.repo.Create(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error) {
	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = *req.EndsAt
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, tenantID, id)
	}
	if req.StartsAt != nil || req.EndsAt != nil {
		// The stored row supplies whichever bound the request omits, so a
		// one-sided update cannot invert the range.
		current, err := s.repo.Get(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		starts, ends := current.StartsAt, current.EndsAt
		if req.StartsAt != nil {
			starts = *req.StartsAt
		}
		if req.EndsAt != nil {
			ends = *req.EndsAt
		}
		if !ends.After(starts) {
			return nil, shared.ErrInvalidTransition
		}
	}
	if err := s.repo.Update(ctx, tenantID, id, updates); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req ListAppointmentsRequest) ([]Appointment, int, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	return s.repo.List(ctx, tenantID, req)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// PollResult is the delta returned to polling clients.
type PollResult struct {
	Appointments []Appointment `json:"appointments"`
	ServerTime   time.Time     `json:"server_time"`
}

// Poll returns appointments changed since the given time. Concurrent polls
// for the same tenant and watermark are coalesced into one query.
func (s *Service) Poll(ctx context.Context, tenantID uuid.UUID, since time.Time) (*PollResult, error) {
	key := fmt.Sprintf("%s:%d", tenantID, since.UnixMilli())
	ch := s.poll.DoChan(key, func() (any, error) {
		appts, err := s.repo.UpdatedSince(context.WithoutCancel(ctx), tenantID, since)
		if err != nil {
			return nil, err
		}
		return &PollResult{Appointments: appts, ServerTime: time.Now().UTC()}, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*PollResult), nil
	}
}
