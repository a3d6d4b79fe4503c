package deals

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Pipeline stages.
const (
	StageProspecting = "prospecting"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageWon         = "won"
	StageLost        = "lost"
)

var stageOrder = map[string]int{
	StageProspecting: 0,
	StageProposal:    1,
	StageNegotiation: 2,
}

// ValidateStageChange allows forward movement through the open stages and a
// drop to won/lost from any open stage. Won and lost are terminal.
func ValidateStageChange(current, target string) error {
	curOrder, curOpen := stageOrder[current]
	if !curOpen {
		return shared.ErrInvalidTransition
	}
	if target == StageWon || target == StageLost {
		return nil
	}
	targetOrder, targetOpen := stageOrder[target]
	if !targetOpen || targetOrder <= curOrder {
		return shared.ErrInvalidTransition
	}
	return nil
}

// Deal is a revenue opportunity owned by a tenant.
type Deal struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	ContactID     *uuid.UUID `json:"contact_id,omitempty"`
	Title         string     `json:"title"`
	Stage         string     `json:"stage"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
