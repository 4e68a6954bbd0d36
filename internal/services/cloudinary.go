package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/yukikurage/tripmate-api/internal/config"
)

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// StoredObject identifies an uploaded object in the external store.
type StoredObject struct {
	Ref string
	URL string
}

// ObjectStore keeps gallery image bytes outside the database.
type ObjectStore interface {
	Put(ctx context.Context, name string, body io.Reader) (*StoredObject, error)
	Delete(ctx context.Context, ref string) error
}

// CloudinaryStore is an ObjectStore backed by Cloudinary.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore creates a CloudinaryStore from explicit credentials.
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &CloudinaryStore{cld: cld, folder: cfg.Folder}, nil
}

// Put uploads body under name inside the configured folder.
func (s *CloudinaryStore) Put(ctx context.Context, name string, body io.Reader) (*StoredObject, error) {
	res, err := s.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID: name,
		Folder:   s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return &StoredObject{Ref: res.PublicID, URL: res.SecureURL}, nil
}

// Delete removes the object. An object that is already gone counts as deleted.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: ref})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: unexpected result %q", res.Result)
	}
	return nil
}

// UnconfiguredStore rejects every call. It stands in for the object store
// when no credentials are configured so the rest of the API keeps working.
type UnconfiguredStore struct{}

func (UnconfiguredStore) Put(context.Context, string, io.Reader) (*StoredObject, error) {
	return nil, ErrStorageNotConfigured
}

func (UnconfiguredStore) Delete(context.Context, string) error {
	return ErrStorageNotConfigured
}
