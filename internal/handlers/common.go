package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// pagination reads page/limit query values with sane bounds.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

// writeFieldError maps service validation errors to an inline 400 with the
// offending field named; other errors fall through to the caller.
func writeFieldError(c *gin.Context, err error) bool {
	var fieldErr *services.FieldError
	if errors.As(err, &fieldErr) {
		utils.ValidationError(c, []utils.ErrorDetail{{
			Code:    "invalid_field",
			Field:   fieldErr.Field,
			Message: fieldErr.Err.Error(),
		}})
		return true
	}
	if errors.Is(err, services.ErrMissingRequiredField) {
		utils.BadRequest(c, err.Error())
		return true
	}
	return false
}

// currentUser pulls the authenticated user id or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	id, ok := userID.(string)
	if !exists || !ok || id == "" {
		utils.Unauthorized(c, "Authentication required")
		return "", false
	}
	return id, true
}

// currentOrganization pulls the resolved organization id or writes a 400.
func currentOrganization(c *gin.Context) (string, bool) {
	orgID, exists := c.Get("organization_id")
	id, ok := orgID.(string)
	if !exists || !ok || id == "" {
		utils.Error(c, http.StatusBadRequest, "Profile setup incomplete", ErrorResponse{
			Error:   "no_profile",
			Message: "Complete organization setup before using this resource",
		})
		return "", false
	}
	return id, true
}
