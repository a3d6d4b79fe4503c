package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Lead statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

var allowedTransitions = map[string][]string{
	StatusNew:       {StatusContacted, StatusLost},
	StatusContacted: {StatusQualified, StatusLost},
	StatusQualified: {StatusConverted, StatusLost},
}

// ValidateTransition checks a status change against the pipeline policy.
// Converted and lost are terminal.
func ValidateTransition(current, target string) error {
	for _, allowed := range allowedTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return shared.ErrInvalidTransition
}

// Lead is an unqualified prospect owned by a tenant.
type Lead struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Company   *string    `json:"company,omitempty"`
	Source    string     `json:"source"`
	Status    string     `json:"status"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
