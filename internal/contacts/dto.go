package contacts

type CreateContactRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Title     *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Notes     *string `json:"notes,omitempty"`
}

type UpdateContactRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Title     *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Notes     *string `json:"notes,omitempty"`
}

type ListContactsRequest struct {
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=200"`
	Offset int     `json:"offset" validate:"gte=0"`
}
