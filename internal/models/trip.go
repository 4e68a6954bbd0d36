package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Trip struct {
	ID          string     `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Destination string     `gorm:"type:varchar(255)" json:"destination"`
	Description string     `gorm:"type:text" json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	JoinCode    string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"join_code"`
	CreatedBy   string     `gorm:"type:varchar(36);not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Members []TripMember `gorm:"foreignKey:TripID" json:"members,omitempty"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// MemberFor returns the membership of userID, or nil.
func (t *Trip) MemberFor(userID string) *TripMember {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i]
		}
	}
	return nil
}

func (t *Trip) IsMember(userID string) bool {
	return t.MemberFor(userID) != nil
}

func (t *Trip) IsAdmin(userID string) bool {
	m := t.MemberFor(userID)
	return m != nil && m.Role == TripRoleAdmin
}

// AdminCount returns the number of admin members, ignoring excluded.
func (t *Trip) AdminCount(excluded string) int {
	n := 0
	for _, m := range t.Members {
		if m.UserID != excluded && m.Role == TripRoleAdmin {
			n++
		}
	}
	return n
}

// NextAdminCandidate returns the longest-standing member other than
// excluded, or nil when no one else remains.
func (t *Trip) NextAdminCandidate(excluded string) *TripMember {
	var candidate *TripMember
	for i := range t.Members {
		m := &t.Members[i]
		if m.UserID == excluded {
			continue
		}
		if candidate == nil || m.JoinedAt.Before(candidate.JoinedAt) ||
			(m.JoinedAt.Equal(candidate.JoinedAt) && m.UserID < candidate.UserID) {
			candidate = m
		}
	}
	return candidate
}
