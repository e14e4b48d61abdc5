package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member: nurse, cashier, doctor or administrator.
// Credentials live with the identity provider; only the directory
// record is kept here.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	Cedula    *string   `db:"cedula" json:"cedula,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateUserInput is the admin's new-staff form.
type CreateUserInput struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	Cedula *string `json:"cedula,omitempty"`
}

// UpdateUserInput is a partial update: nil means keep.
type UpdateUserInput struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	Cedula *string `json:"cedula,omitempty"`
}

// ListFilter narrows the staff listing.
type ListFilter struct {
	Query string
	Role  string
}
