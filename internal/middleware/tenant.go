package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/models"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// TenantMiddleware resolves and enforces the caller's organization scope.
// The organization id comes from the token claims only; there is no
// caller-supplied tenant selector to spoof.
type TenantMiddleware struct {
	orgService *services.OrganizationService
}

func NewTenantMiddleware(orgService *services.OrganizationService) *TenantMiddleware {
	return &TenantMiddleware{orgService: orgService}
}

// RequireProfile ensures the authenticated user has a complete profile. A
// user without one is routed back into the provisioning flow with a
// distinguishable error code.
func (m *TenantMiddleware) RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}

		profile, err := m.orgService.GetProfile(c.Request.Context(), userID)
		if err != nil || !profile.IsComplete() {
			utils.Error(c, http.StatusBadRequest, "Profile setup incomplete", utils.ErrorDetail{
				Code:    "no_profile",
				Message: "Complete organization setup before using this resource",
			})
			c.Abort()
			return
		}

		c.Set("profile", profile)
		if GetOrganizationID(c) == "" {
			c.Set("organization_id", profile.OrganizationID)
		}

		c.Next()
	}
}

// EnforceTenantIsolation rejects requests whose token organization disagrees
// with the loaded profile's organization (stale token after a profile
// change).
func (m *TenantMiddleware) EnforceTenantIsolation() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenOrg := GetOrganizationID(c)
		profile := GetProfile(c)

		if profile != nil && tokenOrg != "" && profile.OrganizationID != tokenOrg {
			utils.SendErrorResponse(c, http.StatusForbidden, "Tenant isolation violation", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetProfile returns the profile loaded by RequireProfile, or nil.
func GetProfile(c *gin.Context) *models.Profile {
	if v, exists := c.Get("profile"); exists {
		if p, ok := v.(*models.Profile); ok {
			return p
		}
	}
	return nil
}
