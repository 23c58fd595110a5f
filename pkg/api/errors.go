package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andymattick/eduagents/pkg/services"
)

// mapServiceError maps a services-layer error to an HTTP response, grounded
// on the teacher's mapServiceError (pkg/api/errors.go).
func mapServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrTierRejected) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
