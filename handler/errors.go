package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-service/logger"
	"portfolio-service/repository"
)

// respondError maps store errors onto HTTP responses. notFound is the
// message used for a 404, e.g. "Article not found".
func respondError(c *gin.Context, log logger.Logger, notFound string, err error) {
	var verr *repository.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": verr.Fields,
		})
	case errors.Is(err, repository.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		log.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"details": gin.H{"body": err.Error()},
	})
}
