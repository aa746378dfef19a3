package domain

import "time"

// RevokedToken records a token id invalidated before its natural expiry.
// Once ExpiresAt has passed the record is inert and may be pruned.
type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
