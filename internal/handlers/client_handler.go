package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type ClientRequest struct {
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	DateOfBirth *time.Time  `json:"date_of_birth"`
	Status      string      `json:"status"`
	Details     models.JSON `json:"details"`
}

type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), orgID, services.ClientInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Status:      req.Status,
		Details:     req.Details,
	})
	if err != nil {
		if writeFieldError(c, err) {
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create client", err)
		return
	}

	utils.Created(c, "Client created", client)
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	client, err := h.clientService.GetClient(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			utils.NotFound(c, "Client not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to load client", err)
		return
	}

	utils.SendSuccessResponse(c, client)
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	page, limit, offset := pagination(c)
	clients, total, err := h.clientService.ListClients(c.Request.Context(), orgID, limit, offset)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	utils.Paginated(c, clients, page, limit, total)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), orgID, c.Param("id"), services.ClientInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Status:      req.Status,
		Details:     req.Details,
	})
	if err != nil {
		if writeFieldError(c, err) {
			return
		}
		if errors.Is(err, services.ErrClientNotFound) {
			utils.NotFound(c, "Client not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to update client", err)
		return
	}

	utils.SendSuccessResponse(c, client)
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), orgID, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			utils.NotFound(c, "Client not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete client", err)
		return
	}

	utils.Success(c, http.StatusOK, "Client deleted", nil)
}
