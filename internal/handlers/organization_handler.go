package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/middleware"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

type CreateOrganizationRequest struct {
	OrganizationName string `json:"organizationName"`
	ABN              string `json:"abn"`
	Phone            string `json:"phone"`
	FullName         string `json:"fullName"`
	Plan             string `json:"plan"`
}

type OrganizationHandler struct {
	provisioningService *services.ProvisioningService
	orgService          *services.OrganizationService
}

func NewOrganizationHandler(provisioningService *services.ProvisioningService, orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		provisioningService: provisioningService,
		orgService:          orgService,
	}
}

// CreateOrganization runs the provisioning protocol for the authenticated
// user. Body fields are optional: a staged sign-up request takes precedence,
// and the body only fills in what was never staged.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	email := middleware.GetUserEmail(c)

	var req CreateOrganizationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request body")
			return
		}
	}

	result, err := h.provisioningService.Provision(c.Request.Context(), userID, email, &services.ProvisionInput{
		OrganizationName: req.OrganizationName,
		ABN:              req.ABN,
		Phone:            req.Phone,
		FullName:         req.FullName,
		Plan:             req.Plan,
	})
	if err != nil {
		if writeFieldError(c, err) {
			return
		}
		// Backend failures surface their message so the operator can see
		// which path failed without consulting logs.
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create organization", err)
		return
	}

	if result.AlreadyExisted {
		utils.Error(c, http.StatusBadRequest, "Organization already exists", ErrorResponse{
			Error:   "already_provisioned",
			Message: "An organization has already been set up for this account",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"organizationId": result.Organization.ID,
	})
}

// GetOrganization returns the caller's own organization.
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgID, ok := currentOrganization(c)
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganization(c.Request.Context(), orgID)
	if err != nil {
		if errors.Is(err, services.ErrNoOrganization) {
			utils.NotFound(c, "Organization not found")
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to load organization", err)
		return
	}

	utils.SendSuccessResponse(c, org)
}
