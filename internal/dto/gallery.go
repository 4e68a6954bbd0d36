package dto

import (
	"time"

	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/utils"
)

// GalleryItemDTO represents a gallery image in API responses
type GalleryItemDTO struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  UserDTO   `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// GalleryListResponse represents a paginated list of gallery images
type GalleryListResponse struct {
	Items      []GalleryItemDTO         `json:"items"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToGalleryItemDTO converts a gallery item to DTO
func ToGalleryItemDTO(item models.GalleryItem) GalleryItemDTO {
	uploader := ToPublicUserDTO(item.Uploader)
	if uploader.ID == "" {
		uploader.ID = item.UploadedBy
	}

	return GalleryItemDTO{
		ID:          item.ID,
		TripID:      item.TripID,
		URL:         item.URL,
		ContentType: item.ContentType,
		Size:        item.Size,
		UploadedBy:  uploader,
		CreatedAt:   item.CreatedAt,
	}
}

// ToGalleryListResponse converts a page of gallery items to a response
func ToGalleryListResponse(items []models.GalleryItem, params utils.PaginationParams, total int64) GalleryListResponse {
	dtos := make([]GalleryItemDTO, len(items))
	for i, item := range items {
		dtos[i] = ToGalleryItemDTO(item)
	}

	return GalleryListResponse{
		Items: dtos,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
