package automations

type CreateRuleRequest struct {
	Name         string         `json:"name" validate:"required,max=200"`
	TriggerEvent string         `json:"trigger_event" validate:"required,oneof=lead.created lead.status_changed lead.converted deal.created deal.stage_changed invoice.sent"`
	Action       string         `json:"action" validate:"required,oneof=send_email webhook create_task"`
	Params       map[string]any `json:"params"`
	Enabled      *bool          `json:"enabled,omitempty"`
}

type UpdateRuleRequest struct {
	Name         *string         `json:"name,omitempty" validate:"omitempty,max=200"`
	TriggerEvent *string         `json:"trigger_event,omitempty" validate:"omitempty,oneof=lead.created lead.status_changed lead.converted deal.created deal.stage_changed invoice.sent"`
	Action       *string         `json:"action,omitempty" validate:"omitempty,oneof=send_email webhook create_task"`
	Params       *map[string]any `json:"params,omitempty"`
	Enabled      *bool           `json:"enabled,omitempty"`
}

type ListRulesRequest struct {
	Event  *string `json:"event,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
