package models

import "time"

type TripRole string

const (
	TripRoleAdmin  TripRole = "admin"
	TripRoleMember TripRole = "member"
)

type TripMember struct {
	TripID   string    `gorm:"type:varchar(36);primarykey" json:"trip_id"`
	UserID   string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	Role     TripRole  `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	// Relations
	Trip Trip `gorm:"foreignKey:TripID" json:"trip,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
