package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/internal/service"
)

// respondError maps service errors onto status codes. Unexpected errors are
// attached to the context for the request logger and reported generically.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var transport *service.TransportError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrLLMNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image analysis is not configured"})
	case errors.As(err, &transport):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service failed"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
