package models

import "time"

// PasswordReset is the pending one-time-password state of a user. The
// primary key on UserID allows at most one live code per user; issuing a
// new code replaces the row.
type PasswordReset struct {
	UserID    string    `gorm:"type:varchar(36);primarykey" json:"-"`
	Code      string    `gorm:"type:varchar(6);not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// UsableAt reports whether the code may still be consumed at t.
func (r *PasswordReset) UsableAt(t time.Time) bool {
	return t.Before(r.ExpiresAt)
}
