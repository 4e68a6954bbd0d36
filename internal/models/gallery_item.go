package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GalleryItem struct {
	ID          string    `gorm:"type:varchar(36);primarykey" json:"id"`
	TripID      string    `gorm:"type:varchar(36);index;not null" json:"trip_id"`
	UploadedBy  string    `gorm:"type:varchar(36);not null" json:"uploaded_by"`
	ExternalRef string    `gorm:"type:varchar(255);not null" json:"-"`
	URL         string    `gorm:"type:varchar(1024);not null" json:"url"`
	ContentType string    `gorm:"type:varchar(50)" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Uploader User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

func (g *GalleryItem) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
