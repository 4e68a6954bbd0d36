package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
	"github.com/yukikurage/tripmate-api/internal/services"
)

type WeatherHandler struct {
	weatherService *services.WeatherService
}

func NewWeatherHandler(weatherService *services.WeatherService) *WeatherHandler {
	return &WeatherHandler{weatherService: weatherService}
}

// ByCoordinates handles GET /api/weather?lat=&lon=
func (h *WeatherHandler) ByCoordinates(c *gin.Context) {
	weather, err := h.weatherService.ByCoordinates(c.Request.Context(), c.Query("lat"), c.Query("lon"))
	if err != nil {
		respondWeatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, weather)
}

// ByPlace handles GET /api/weather/quick?location=
func (h *WeatherHandler) ByPlace(c *gin.Context) {
	weather, err := h.weatherService.ByPlace(c.Request.Context(), c.Query("location"))
	if err != nil {
		respondWeatherError(c, err)
		return
	}
	c.JSON(http.StatusOK, weather)
}

func respondWeatherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidWeatherQuery):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWeatherUnavailable):
		apierrors.BadGateway(c, err.Error())
	case errors.Is(err, services.ErrWeatherNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		respondUnexpected(c, err)
	}
}
