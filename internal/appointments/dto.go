package appointments

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	Title     string     `json:"title" validate:"required,max=200"`
	Notes     string     `json:"notes" validate:"max=2000"`
	Location  string     `json:"location" validate:"max=200"`
	StartsAt  time.Time  `json:"starts_at" validate:"required"`
	EndsAt    time.Time  `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

type UpdateAppointmentRequest struct {
	Title    *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes    *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Location *string    `json:"location,omitempty" validate:"omitempty,max=200"`
	Status   *string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled completed cancelled"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

type ListAppointmentsRequest struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Limit  int        `json:"limit" validate:"gte=0,lte=200"`
	Offset int        `json:"offset" validate:"gte=0"`
}
