package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/repository"
	"github.com/yukikurage/tripmate-api/internal/utils"
)

var (
	ErrInvalidImage        = errors.New("image must be a JPEG, PNG or WebP file of at most 5 MiB")
	ErrUploadFailed        = errors.New("failed to upload image")
	ErrGalleryItemNotFound = errors.New("gallery item not found")
	ErrNotUploader         = errors.New("only the uploader can delete this image")
	ErrDeleteFailed        = errors.New("failed to delete image from storage")
)

// GalleryService manages trip photos. Image bytes live in the object
// store; the database keeps the index.
type GalleryService struct {
	galleryRepo repository.GalleryRepository
	trips       *TripService
	store       ObjectStore
}

// NewGalleryService creates a new GalleryService.
func NewGalleryService(galleryRepo repository.GalleryRepository, trips *TripService, store ObjectStore) *GalleryService {
	return &GalleryService{
		galleryRepo: galleryRepo,
		trips:       trips,
		store:       store,
	}
}

// UploadInput describes an image to add to a trip gallery.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Upload stores the image and indexes it. Nothing is indexed when the
// store rejects the upload, and the object is discarded when the trip or
// the uploader's membership is gone by the time it is indexed.
func (s *GalleryService) Upload(ctx context.Context, tripID, uploaderID string, input UploadInput) (*models.GalleryItem, error) {
	_, member, err := s.trips.Membership(tripID, uploaderID)
	if err != nil {
		return nil, err
	}

	contentType := normalizeContentType(input.ContentType)
	if !constants.AllowedImageTypes[contentType] || input.Size <= 0 || input.Size > constants.MaxImageSize {
		return nil, ErrInvalidImage
	}

	putCtx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
	defer cancel()

	obj, err := s.store.Put(putCtx, uuid.NewString(), input.Body)
	if err != nil {
		slog.ErrorContext(ctx, "gallery upload failed", "trip_id", tripID, "filename", input.Filename, "error", err)
		return nil, ErrUploadFailed
	}

	item := &models.GalleryItem{
		TripID:      tripID,
		UploadedBy:  uploaderID,
		ExternalRef: obj.Ref,
		URL:         obj.URL,
		ContentType: contentType,
		Size:        input.Size,
	}
	if err := s.galleryRepo.Create(item); err != nil {
		s.discard(ctx, obj.Ref)
		if lost := lostMembership(err); lost != nil {
			return nil, lost
		}
		return nil, fmt.Errorf("failed to save gallery item: %w", err)
	}

	item.Uploader = member.User
	return item, nil
}

// discard removes an uploaded object whose row could not be written.
func (s *GalleryService) discard(ctx context.Context, ref string) {
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.StorageTimeout)
	defer cancel()

	if err := s.store.Delete(deleteCtx, ref); err != nil {
		slog.WarnContext(ctx, "failed to discard unindexed gallery object", "ref", ref, "error", err)
	}
}

// Remove deletes a gallery item. The stored object is deleted first; if
// that fails the item stays indexed.
func (s *GalleryService) Remove(ctx context.Context, itemID, requesterID string) error {
	item, err := s.galleryRepo.FindByID(itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrGalleryItemNotFound
		}
		return fmt.Errorf("failed to find gallery item: %w", err)
	}

	if item.UploadedBy != requesterID {
		return ErrNotUploader
	}

	deleteCtx, cancel := context.WithTimeout(ctx, constants.StorageTimeout)
	defer cancel()

	if err := s.store.Delete(deleteCtx, item.ExternalRef); err != nil {
		slog.ErrorContext(ctx, "gallery object delete failed", "item_id", item.ID, "error", err)
		return ErrDeleteFailed
	}

	if err := s.galleryRepo.Delete(item.ID); err != nil {
		return fmt.Errorf("failed to delete gallery item: %w", err)
	}
	return nil
}

// List returns a page of the trip's gallery, newest first, and the total
// number of items.
func (s *GalleryService) List(tripID, requesterID string, params utils.PaginationParams) ([]models.GalleryItem, int64, error) {
	if _, _, err := s.trips.Membership(tripID, requesterID); err != nil {
		return nil, 0, err
	}

	items, total, err := s.galleryRepo.ListByTrip(tripID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gallery: %w", err)
	}
	return items, total, nil
}
