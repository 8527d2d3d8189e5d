package domain

import "time"

// Customer is a contact record managed by backoffice staff.
type Customer struct {
	ID          string
	Name        string
	LastName    *string
	Description *string
	Email       string
	Age         *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
