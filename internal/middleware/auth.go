package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

const actorKey = "actor"

// Authenticator resolves a bearer token to the stored account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// StatusGate refuses accounts that are not approved.
type StatusGate interface {
	CheckStatus(actor access.Actor) error
}

// AuthMiddleware creates a middleware for JWT authentication. Accounts that
// are pending or rejected are refused before any handler runs.
func AuthMiddleware(auth Authenticator, gate StatusGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Not authorized, no token provided")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		actor := access.ActorFromUser(user)
		if err := gate.CheckStatus(actor); err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Set("userID", actor.ID)
		c.Set("userRole", actor.Role)
		c.Set(actorKey, actor)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User role not found in context")
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, deniedMessage(allowedRoles))
		c.Abort()
	}
}

func deniedMessage(roles []models.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r)+"s")
	}
	return "Access denied. " + strings.Join(names, " or ") + " only."
}

// GetActor returns the authenticated actor set by AuthMiddleware.
func GetActor(c *gin.Context) (access.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return access.Actor{}, false
	}
	actor, ok := v.(access.Actor)
	return actor, ok
}

// GetUserIDFromContext returns the authenticated user ID.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// GetUserRoleFromContext returns the authenticated user role.
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get("userRole")
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}
