package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type SaveFormConfigRequest struct {
	Config models.FormSchema `json:"config" binding:"required"`
}

type FormConfigHandler struct {
	formService *services.FormConfigService
}

func NewFormConfigHandler(formService *services.FormConfigService) *FormConfigHandler {
	return &FormConfigHandler{formService: formService}
}

// GetConfig returns the organization's stored schema, or the default schema
// when nothing has been saved yet. Both cases are a 200 with the same shape.
func (h *FormConfigHandler) GetConfig(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	schema, err := h.formService.GetConfig(c.Request.Context(), orgID)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to load form configuration", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": schema})
}

// SaveConfig replaces the organization's schema as a whole document.
func (h *FormConfigHandler) SaveConfig(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	var req SaveFormConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.formService.PutConfig(c.Request.Context(), orgID, req.Config); err != nil {
		if writeFieldError(c, err) {
			return
		}
		if errors.Is(err, services.ErrInvalidSchema) {
			utils.BadRequest(c, err.Error())
			return
		}
		// The client surfaces this message directly, so keep the backend detail.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
