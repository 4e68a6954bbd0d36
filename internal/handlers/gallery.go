package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/services"
	"github.com/yukikurage/tripmate-api/internal/utils"
)

type GalleryHandler struct {
	galleryService *services.GalleryService
}

func NewGalleryHandler(galleryService *services.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

// Upload adds an image from the multipart field "image" to the trip gallery
func (h *GalleryHandler) Upload(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadBodySize)
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.BadRequest(c, services.ErrInvalidImage.Error())
			return
		}
		apierrors.BadRequest(c, "An image file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	contentType, err := detectContentType(header, file)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}

	item, err := h.galleryService.Upload(c.Request.Context(), c.Param("id"), userID, services.UploadInput{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondGalleryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGalleryItemDTO(*item))
}

// detectContentType trusts the part header unless it is missing or generic,
// in which case the first bytes of the file are sniffed.
func detectContentType(header *multipart.FileHeader, file multipart.File) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType, nil
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// List returns a page of the trip gallery
func (h *GalleryHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	items, total, err := h.galleryService.List(c.Param("id"), userID, params)
	if err != nil {
		respondGalleryError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGalleryListResponse(items, params, total))
}

// Remove deletes an image. Only the uploader may delete it.
func (h *GalleryHandler) Remove(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.galleryService.Remove(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondGalleryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Image deleted successfully",
	})
}

func respondGalleryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTripNotFound),
		errors.Is(err, services.ErrGalleryItemNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTripMember),
		errors.Is(err, services.ErrNotUploader):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidImage):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUploadFailed),
		errors.Is(err, services.ErrDeleteFailed):
		apierrors.BadGateway(c, err.Error())
	default:
		respondUnexpected(c, err)
	}
}
