package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
)

func respondBindError(c *gin.Context, err error) {
	if details := validationDetails(err); details != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

// respondUnexpected logs an error no sentinel matched and hides it from the client.
func respondUnexpected(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "unhandled error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	_ = c.Error(err)
	apierrors.InternalError(c, "")
}
