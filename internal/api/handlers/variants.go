package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"structural-credit/internal/api/models"
	"structural-credit/internal/boundary"
)

// VariantHandler handles default-boundary listing
type VariantHandler struct{}

func NewVariantHandler() *VariantHandler {
	return &VariantHandler{}
}

// ListVariants handles GET /api/v1/variants
func (h *VariantHandler) ListVariants(c *gin.Context) {
	c.JSON(http.StatusOK, models.VariantsResponse{Variants: boundary.Catalog()})
}
