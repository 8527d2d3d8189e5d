package domain

import "time"

// RevokedToken records a refresh token id that must never be accepted again.
type RevokedToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
