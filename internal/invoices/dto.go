package invoices

import (
	"time"

	"github.com/google/uuid"
)

type LineInput struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	ContactID uuid.UUID   `json:"contact_id" validate:"required"`
	Currency  string      `json:"currency" validate:"required,len=3"`
	TaxRate   float64     `json:"tax_rate" validate:"gte=0,lte=1"`
	DueAt     *time.Time  `json:"due_at,omitempty"`
	Lines     []LineInput `json:"lines" validate:"required,min=1,dive"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid void"`
}

type ListInvoicesRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid void"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
