package deals

import (
	"time"

	"github.com/google/uuid"
)

type CreateDealRequest struct {
	ContactID     *uuid.UUID `json:"contact_id,omitempty"`
	Title         string     `json:"title" validate:"required,max=200"`
	Amount        float64    `json:"amount" validate:"gte=0"`
	Currency      string     `json:"currency" validate:"required,len=3"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type UpdateDealRequest struct {
	ContactID     *uuid.UUID `json:"contact_id,omitempty"`
	Title         *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Amount        *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

type ChangeStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=prospecting proposal negotiation won lost"`
}

type ListDealsRequest struct {
	Stage  *string `json:"stage,omitempty" validate:"omitempty,oneof=prospecting proposal negotiation won lost"`
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
