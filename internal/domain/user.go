package domain

import (
	"time"
)

// User is an account that can authenticate. Users are deactivated, never deleted.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    *string
	LastName     *string
	PasswordHash string
	IsVerified   bool
	IsSuperuser  bool
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClientInfo describes where a login came from, for logs and events.
type ClientInfo struct {
	IP        string
	UserAgent string
}
