package automations

import (
	"time"

	"github.com/google/uuid"
)

// Actions a rule can run when its trigger fires.
const (
	ActionSendEmail  = "send_email"
	ActionWebhook    = "webhook"
	ActionCreateTask = "create_task"
)

// Trigger events emitted by the CRM services.
const (
	EventLeadCreated       = "lead.created"
	EventLeadStatusChanged = "lead.status_changed"
	EventLeadConverted     = "lead.converted"
	EventDealCreated       = "deal.created"
	EventDealStageChanged  = "deal.stage_changed"
	EventInvoiceSent       = "invoice.sent"
)

// KnownEvent reports whether the event name is one the services emit.
func KnownEvent(event string) bool {
	switch event {
	case EventLeadCreated, EventLeadStatusChanged, EventLeadConverted,
		EventDealCreated, EventDealStageChanged, EventInvoiceSent:
		return true
	}
	return false
}

// Rule binds a trigger event to an action for one tenant. Params carries
// action-specific settings (recipient, webhook url, task title).
type Rule struct {
	ID           uuid.UUID      `json:"id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	Name         string         `json:"name"`
	TriggerEvent string         `json:"trigger_event"`
	Action       string         `json:"action"`
	Params       map[string]any `json:"params"`
	Enabled      bool           `json:"enabled"`
	CreatedBy    uuid.UUID      `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
