package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health returns the liveness status of the service.
func Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Service health
	//
	// responses:
	//   200:
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}
