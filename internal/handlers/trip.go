package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/dto"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/services"
)

type TripHandler struct {
	tripService *services.TripService
}

func NewTripHandler(tripService *services.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTrip creates a new trip with the caller as admin
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTripRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Destination string     `json:"destination" binding:"max=255"`
		Description string     `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := h.tripService.CreateTrip(userID, services.TripInput{
		Title:       req.Title,
		Destination: req.Destination,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTripDetailDTO(*trip, models.TripRoleAdmin))
}

// ListTrips returns all trips the user is a member of
func (h *TripHandler) ListTrips(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.tripService.ListTripsForUser(userID)
	if err != nil {
		respondTripError(c, err)
		return
	}

	trips := make([]dto.TripWithRoleDTO, len(memberships))
	for i, m := range memberships {
		trips[i] = dto.ToTripWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"trips": trips,
	})
}

// GetTrip returns trip details. The trip is loaded by RequireTripAccess.
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, ok := middleware.GetTrip(c)
	member, okMember := middleware.GetTripMember(c)
	if !ok || !okMember {
		apierrors.InternalError(c, "Trip not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTripDetailDTO(*trip, member.Role))
}

// UpdateTrip updates trip details
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	type UpdateTripRequest struct {
		Title       *string    `json:"title" binding:"omitempty,max=255"`
		Destination *string    `json:"destination" binding:"omitempty,max=255"`
		Description *string    `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}

	var req UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trip, err := h.tripService.UpdateTrip(c.Param("id"), userID, services.TripPatch{
		Title:       req.Title,
		Destination: req.Destination,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTripDTO(*trip, true))
}

// DeleteTrip deletes a trip and everything in it
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.tripService.DeleteTrip(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Trip deleted successfully",
	})
}

// JoinTrip allows a user to join via join code
func (h *TripHandler) JoinTrip(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinRequest struct {
		JoinCode string `json:"join_code" binding:"required,joincode"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	trip, joined, err := h.tripService.JoinByCode(userID, req.JoinCode)
	if err != nil {
		respondTripError(c, err)
		return
	}

	role := models.TripRoleMember
	if m := trip.MemberFor(userID); m != nil {
		role = m.Role
	}

	c.JSON(http.StatusOK, gin.H{
		"joined": joined,
		"trip":   dto.ToTripDetailDTO(*trip, role),
	})
}

// LeaveTrip removes the caller from the trip
func (h *TripHandler) LeaveTrip(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	result, err := h.tripService.LeaveTrip(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegenerateJoinCode generates a new join code for the trip
func (h *TripHandler) RegenerateJoinCode(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	trip, err := h.tripService.RegenerateJoinCode(c.Param("id"), userID)
	if err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTripDTO(*trip, true))
}

// RemoveMember removes a member from the trip
func (h *TripHandler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	result, err := h.tripService.RemoveMember(c.Request.Context(), c.Param("id"), userID, c.Param("user_id"))
	if err != nil {
		respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Member removed successfully",
		"promoted_user_id": result.PromotedUserID,
	})
}

func respondTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTripNotFound),
		errors.Is(err, services.ErrTripMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotTripMember),
		errors.Is(err, services.ErrTripAdminRequired):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrJoinCodeGenerationFailed):
		apierrors.InternalError(c, err.Error())
	default:
		respondUnexpected(c, err)
	}
}
