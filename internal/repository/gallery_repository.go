package repository

import (
	"github.com/yukikurage/tripmate-api/internal/database"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/utils"
	"gorm.io/gorm"
)

// GormGalleryRepository is a GORM implementation of GalleryRepository
type GormGalleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository creates a new GalleryRepository
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &GormGalleryRepository{db: db}
}

// Create creates a new gallery item
func (r *GormGalleryRepository) Create(item *models.GalleryItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockMembership(tx, item.TripID, item.UploadedBy); err != nil {
			return err
		}
		return tx.Omit("Uploader").Create(item).Error
	})
}

// FindByID finds a gallery item by ID
func (r *GormGalleryRepository) FindByID(id string) (*models.GalleryItem, error) {
	var item models.GalleryItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByTrip retrieves a page of a trip's gallery with uploaders
func (r *GormGalleryRepository) ListByTrip(tripID string, params utils.PaginationParams) ([]models.GalleryItem, int64, error) {
	var total int64
	if err := r.db.Model(&models.GalleryItem{}).
		Where("trip_id = ?", tripID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.GalleryItem
	if err := r.db.Preload("Uploader").
		Where("trip_id = ?", tripID).
		Scopes(database.NewestFirst, database.Paginate(params)).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Delete deletes a gallery item
func (r *GormGalleryRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.GalleryItem{}).Error
}
