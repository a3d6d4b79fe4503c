package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Invoice statuses.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
	StatusVoid  = "void"
)

// ValidateStatusChange enforces draft -> sent -> paid, with void reachable
// from draft and sent. Paid and void are terminal.
func ValidateStatusChange(current, target string) error {
	switch current {
	case StatusDraft:
		if target == StatusSent || target == StatusVoid {
			return nil
		}
	case StatusSent:
		if target == StatusPaid || target == StatusVoid {
			return nil
		}
	}
	return shared.ErrInvalidTransition
}

// Invoice is a billing document owned by a tenant.
type Invoice struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	ContactID    uuid.UUID     `json:"contact_id"`
	Number       string        `json:"number"`
	Status       string        `json:"status"`
	Currency     string        `json:"currency"`
	Subtotal     float64       `json:"subtotal"`
	TaxRate      float64       `json:"tax_rate"`
	TaxAmount    float64       `json:"tax_amount"`
	Total        float64       `json:"total"`
	TotalDisplay string        `json:"total_display"`
	IssuedAt     *time.Time    `json:"issued_at,omitempty"`
	DueAt        *time.Time    `json:"due_at,omitempty"`
	Lines        []InvoiceLine `json:"lines,omitempty"`
	CreatedBy    uuid.UUID     `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// InvoiceLine is a single billed item.
type InvoiceLine struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	LineTotal   float64   `json:"line_total"`
}
