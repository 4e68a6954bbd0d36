package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/services"
)

// RouterConfig holds everything the HTTP layer is built from.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	SessionStore   sessions.Store
	Tokens         middleware.TokenVerifier

	Auth    *services.AuthService
	Trips   *services.TripService
	Polls   *services.PollService
	Gallery *services.GalleryService
	Weather *services.WeatherService
}

// NewRouter builds the gin engine with all API routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(sessions.Sessions(constants.SessionName, cfg.SessionStore))

	authHandler := NewAuthHandler(cfg.Auth)
	tripHandler := NewTripHandler(cfg.Trips)
	pollHandler := NewPollHandler(cfg.Polls)
	galleryHandler := NewGalleryHandler(cfg.Gallery)
	weatherHandler := NewWeatherHandler(cfg.Weather)

	requireAuth := middleware.RequireAuth(cfg.Tokens)
	tripAccess := middleware.RequireTripAccess(cfg.Trips)
	tripAdmin := middleware.RequireTripAdmin()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "TripMate API is running",
		})
	})
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Trip routes (protected)
		trips := api.Group("/trips")
		trips.Use(requireAuth)
		{
			trips.POST("", tripHandler.CreateTrip)
			trips.GET("", tripHandler.ListTrips)
			trips.POST("/join", tripHandler.JoinTrip)
			trips.GET("/:id", tripAccess, tripHandler.GetTrip)
			trips.PUT("/:id", tripAccess, tripAdmin, tripHandler.UpdateTrip)
			trips.DELETE("/:id", tripAccess, tripAdmin, tripHandler.DeleteTrip)
			trips.DELETE("/:id/leave", tripHandler.LeaveTrip)
			trips.POST("/:id/regenerate-code", tripAccess, tripAdmin, tripHandler.RegenerateJoinCode)
			trips.DELETE("/:id/members/:user_id", tripAccess, tripAdmin, tripHandler.RemoveMember)

			// Membership is checked by the services so non-members get 403
			trips.POST("/:id/polls", pollHandler.CreatePoll)
			trips.GET("/:id/polls", pollHandler.ListPolls)
			trips.POST("/:id/gallery", galleryHandler.Upload)
			trips.GET("/:id/gallery", galleryHandler.List)
		}

		polls := api.Group("/polls")
		polls.Use(requireAuth)
		{
			polls.GET("/:id", pollHandler.GetPoll)
			polls.POST("/:id/vote", pollHandler.Vote)
		}

		gallery := api.Group("/gallery")
		gallery.Use(requireAuth)
		{
			gallery.DELETE("/:id", galleryHandler.Remove)
		}

		weather := api.Group("/weather")
		weather.Use(requireAuth)
		{
			weather.GET("", weatherHandler.ByCoordinates)
			weather.GET("/quick", weatherHandler.ByPlace)
		}
	}

	return r
}
