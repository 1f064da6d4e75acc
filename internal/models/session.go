package models

import (
	"time"
)

// Session is the server-side record behind the session cookie. It mirrors the
// identity carried by the bearer token.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"index;not null"`
	Username  string    `gorm:"not null"`
	Role      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
