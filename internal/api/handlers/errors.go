package handlers

import (
	"github.com/gin-gonic/gin"

	"structural-credit/internal/api/models"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
