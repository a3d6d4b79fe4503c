package leads

import "github.com/google/uuid"

type CreateLeadRequest struct {
	Name    string     `json:"name" validate:"required,max=200"`
	Email   *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company *string    `json:"company,omitempty" validate:"omitempty,max=200"`
	Source  string     `json:"source" validate:"required,oneof=web referral import manual"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Name    *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string    `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company *string    `json:"company,omitempty" validate:"omitempty,max=200"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

type TransitionLeadRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified converted lost"`
}

type ConvertLeadRequest struct {
	DealTitle  string  `json:"deal_title" validate:"required,max=200"`
	DealAmount float64 `json:"deal_amount" validate:"gte=0"`
}

type ListLeadsRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
