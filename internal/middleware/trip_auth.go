package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/constants"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/services"
)

// RequireTripAccess checks if the user is a member of the trip in the :id
// parameter and stores the trip and membership in the context.
func RequireTripAccess(trips *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		// Non-members get a 404 so trip ids cannot be probed
		trip, member, err := trips.GetTrip(c.Param("id"), userID)
		if err != nil {
			if errors.Is(err, services.ErrTripNotFound) {
				apierrors.NotFound(c, "Trip not found")
				return
			}
			apierrors.InternalError(c, "")
			return
		}

		c.Set(constants.ContextKeyTrip, trip)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireTripAdmin checks if the user is an admin of the trip. It must run
// after RequireTripAccess.
func RequireTripAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetTripMember(c)
		if !ok {
			apierrors.Forbidden(c, "Trip access required")
			return
		}

		if member.Role != models.TripRoleAdmin {
			apierrors.Forbidden(c, "Only trip admins can perform this action")
			return
		}

		c.Next()
	}
}

// GetTrip returns the trip loaded by RequireTripAccess.
func GetTrip(c *gin.Context) (*models.Trip, bool) {
	v, exists := c.Get(constants.ContextKeyTrip)
	if !exists {
		return nil, false
	}
	trip, ok := v.(*models.Trip)
	return trip, ok
}

// GetTripMember returns the caller's membership loaded by RequireTripAccess.
func GetTripMember(c *gin.Context) (*models.TripMember, bool) {
	v, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return nil, false
	}
	member, ok := v.(*models.TripMember)
	return member, ok
}
