package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Poll struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TripID    string    `gorm:"type:varchar(36);index;not null" json:"trip_id"`
	Question  string    `gorm:"type:varchar(500);not null" json:"question"`
	CreatedBy string    `gorm:"type:varchar(36);not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Options []PollOption `gorm:"foreignKey:PollID" json:"options,omitempty"`
	Votes   []PollVote   `gorm:"foreignKey:PollID" json:"votes,omitempty"`
}

type PollOption struct {
	PollID   string `gorm:"type:varchar(36);primarykey" json:"poll_id"`
	Position int    `gorm:"primarykey;autoIncrement:false" json:"position"`
	Text     string `gorm:"type:varchar(255);not null" json:"text"`
}

// PollVote records a single voter. The (PollID, UserID) primary key means
// a user can hold a vote in at most one option of a poll.
type PollVote struct {
	PollID      string    `gorm:"type:varchar(36);primarykey" json:"poll_id"`
	UserID      string    `gorm:"type:varchar(36);primarykey" json:"user_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// HasVoted reports whether userID appears in any option's voter set.
func (p *Poll) HasVoted(userID string) bool {
	for _, v := range p.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// ValidOption reports whether index addresses one of the poll's options.
func (p *Poll) ValidOption(index int) bool {
	return index >= 0 && index < len(p.Options)
}

// VotersFor returns the voter ids of the option at index, in vote order.
func (p *Poll) VotersFor(index int) []string {
	voters := []string{}
	for _, v := range p.Votes {
		if v.OptionIndex == index {
			voters = append(voters, v.UserID)
		}
	}
	return voters
}
