package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// AdminHandler exposes operator endpoints. Routes using it sit behind
// AdminRequired middleware.
type AdminHandler struct {
	orgService *services.OrganizationService
}

func NewAdminHandler(orgService *services.OrganizationService) *AdminHandler {
	return &AdminHandler{orgService: orgService}
}

func (h *AdminHandler) ListOrganizations(c *gin.Context) {
	page, limit, offset := pagination(c)
	orgs, total, err := h.orgService.ListOrganizations(c.Request.Context(), limit, offset)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list organizations", err)
		return
	}

	utils.Paginated(c, orgs, page, limit, total)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit, offset := pagination(c)
	users, total, err := h.orgService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	utils.Paginated(c, users, page, limit, total)
}

// ListOrphanOrganizations reports organizations with no surviving admin
// profile, the residue of a fallback path that failed between steps. Cleanup
// stays a manual operator decision.
func (h *AdminHandler) ListOrphanOrganizations(c *gin.Context) {
	orgs, err := h.orgService.FindOrphanOrganizations(c.Request.Context())
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to scan for orphan organizations", err)
		return
	}

	utils.SendSuccessResponse(c, gin.H{
		"count":         len(orgs),
		"organizations": orgs,
	})
}
