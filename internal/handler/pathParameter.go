package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scheduleshare/event-manager/internal/errdef"
)

// GetPathParameter parses the named path parameter as an unsigned id. On failure the
// request is aborted with a bad request error and false is returned.
func GetPathParameter(c *gin.Context, parameter string) (uint, bool) {
	value := c.Param(parameter)
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("invalid %s path parameter: %q", parameter, value))
		c.Abort()
		return 0, false
	}
	return uint(id), true
}
