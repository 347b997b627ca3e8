package models

import (
	"time"
)

// RefreshToken is the opaque refresh credential persisted on an account.
// A zero value means the account has no active session.
type RefreshToken struct {
	Token     string     `gorm:"size:128;index" bson:"token,omitempty" json:"-"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// ValidAt reports whether the token is set and not expired at now.
func (t RefreshToken) ValidAt(now time.Time) bool {
	return t.Token != "" && t.ExpiresAt != nil && t.ExpiresAt.After(now)
}
