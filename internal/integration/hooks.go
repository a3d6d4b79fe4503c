package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/deals"
	"github.com/meridian-crm/meridian/internal/leads"
)

// Hooks wires lead conversion into the contacts and deals modules so the
// leads package does not depend on either.
type Hooks struct {
	contacts *contacts.Service
	deals    *deals.Service
}

// NewHooks constructs integration hooks.
func NewHooks(contactSvc *contacts.Service, dealSvc *deals.Service) *Hooks {
	return &Hooks{contacts: contactSvc, deals: dealSvc}
}

// ContactFromLead materialises a contact from a converting lead. The lead's
// single display name is split on the first space; a one-word name becomes
// the last name so the contact still sorts sensibly.
func (h *Hooks) ContactFromLead(ctx context.Context, lead leads.Lead, actor uuid.UUID) (uuid.UUID, error) {
	first, last := splitName(lead.Name)
	req := contacts.CreateContactRequest{
		FirstName: first,
		LastName:  last,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		Notes:     lead.Notes,
	}
	contact, err := h.contacts.Create(ctx, lead.TenantID, req, actor)
	if err != nil {
		return uuid.Nil, fmt.Errorf("integration: contact from lead %s: %w", lead.ID, err)
	}
	return contact.ID, nil
}

// DealFromLead opens a deal against the freshly created contact.
func (h *Hooks) DealFromLead(ctx context.Context, lead leads.Lead, contactID uuid.UUID, title string, amount float64, actor uuid.UUID) (uuid.UUID, error) {
	if title == "" {
		title = lead.Name
	}
	req := deals.CreateDealRequest{
		ContactID: &contactID,
		Title:     title,
		Amount:    amount,
		Currency:  "USD",
	}
	deal, err := h.deals.Create(ctx, lead.TenantID, req, actor)
	if err != nil {
		return uuid.Nil, fmt.Errorf("integration: deal from lead %s: %w", lead.ID, err)
	}
	return deal.ID, nil
}

func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	before, after, found := strings.Cut(name, " ")
	if !found {
		return "", before
	}
	return before, strings.TrimSpace(after)
}
