package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/pkg/utils"
)

// JWTMiddleware handles JWT authentication
type JWTMiddleware struct {
	jwtService *services.JWTService
}

// NewJWTMiddleware creates a new JWT middleware
func NewJWTMiddleware(jwtService *services.JWTService) *JWTMiddleware {
	return &JWTMiddleware{
		jwtService: jwtService,
	}
}

// AuthRequired enforces JWT authentication
func (m *JWTMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authorization header is required", nil)
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(token)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", err)
			c.Abort()
			return
		}

		m.setUserContext(c, claims)
		c.Next()
	}
}

// AuthOptional validates JWT if present but doesn't require it
func (m *JWTMiddleware) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		m.setUserContext(c, claims)
		c.Next()
	}
}

// RequireRole checks if the authenticated user has the required role
func (m *JWTMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := m.getClaims(c)
		if claims == nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}

		if !hasRole(claims.Role, role) {
			utils.SendErrorResponse(c, http.StatusForbidden, "Insufficient permissions", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminRequired ensures the user has admin role
func (m *JWTMiddleware) AdminRequired() gin.HandlerFunc {
	return m.RequireRole("admin")
}

func (m *JWTMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

func (m *JWTMiddleware) setUserContext(c *gin.Context, claims *services.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("organization_id", claims.OrganizationID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
	c.Set("token_claims", claims)

	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, utils.ContextKeyUserID, claims.UserID)
	ctx = context.WithValue(ctx, utils.ContextKeyOrganizationID, claims.OrganizationID)
	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		ctx = context.WithValue(ctx, utils.ContextKeyRequestID, requestID)
	}

	c.Request = c.Request.WithContext(ctx)
}

func (m *JWTMiddleware) getClaims(c *gin.Context) *services.Claims {
	claims, exists := c.Get("token_claims")
	if !exists {
		return nil
	}

	tokenClaims, ok := claims.(*services.Claims)
	if !ok {
		return nil
	}

	return tokenClaims
}

// hasRole checks if user role is sufficient for required role
func hasRole(userRole, requiredRole string) bool {
	roleHierarchy := map[string]int{
		"admin": 100,
		"staff": 10,
	}

	userLevel, userExists := roleHierarchy[userRole]
	requiredLevel, requiredExists := roleHierarchy[requiredRole]

	if !userExists || !requiredExists {
		return userRole == requiredRole
	}

	return userLevel >= requiredLevel
}

// GetUserID helper function to get user ID from context
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// GetOrganizationID helper function to get organization ID from context
func GetOrganizationID(c *gin.Context) string {
	if orgID, exists := c.Get("organization_id"); exists {
		if id, ok := orgID.(string); ok {
			return id
		}
	}
	return ""
}

// GetUserEmail helper function to get user email from context
func GetUserEmail(c *gin.Context) string {
	if email, exists := c.Get("user_email"); exists {
		if emailStr, ok := email.(string); ok {
			return emailStr
		}
	}
	return ""
}

// GetUserRole helper function to get user role from context
func GetUserRole(c *gin.Context) string {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr
		}
	}
	return ""
}

// IsAuthenticated checks if user is authenticated
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
