package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/gin-gonic/gin"
)

type OptionsResponse struct {
	*models.Catalog
	Defaults models.GenerationParams `json:"defaults"`
}

// Options returns the selectable values and their defaults
func (h *GenerationHandler) Options(c *gin.Context) {
	catalog := h.generator.Catalog()
	c.JSON(http.StatusOK, OptionsResponse{
		Catalog:  catalog,
		Defaults: catalog.Defaults(),
	})
}
