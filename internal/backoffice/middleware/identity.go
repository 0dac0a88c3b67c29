package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/branchday-backoffice/internal/domain/shared"
)

const (
	// UserIDHeader carries the authenticated caller's user id
	UserIDHeader = "X-User-Id"

	// UserRoleHeader carries the authenticated caller's role
	UserRoleHeader = "X-User-Role"

	// BranchCodeHeader carries the caller's home branch code
	BranchCodeHeader = "X-Branch-Code"

	// ActorKey is the key used to store the actor in the context
	ActorKey = "actor"
)

// Identity middleware extracts the caller identity set by the upstream
// auth layer. Authentication itself happens before requests reach this
// service; requests without an identity are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		rawRole := strings.TrimSpace(c.GetHeader(UserRoleHeader))
		branchCode := strings.TrimSpace(c.GetHeader(BranchCodeHeader))

		if userID == "" || rawRole == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing caller identity",
				},
			})
			return
		}

		role, ok := shared.ParseRole(rawRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Unknown role: " + rawRole,
				},
			})
			return
		}

		if role == shared.RoleTeller && branchCode == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "BRANCH_REQUIRED",
					"message": "Teller identity requires a branch code",
				},
			})
			return
		}

		c.Set(ActorKey, shared.Actor{
			UserID:     userID,
			Role:       role,
			BranchCode: branchCode,
		})

		c.Next()
	}
}

// GetActor retrieves the actor from the gin context if present
func GetActor(c *gin.Context) (shared.Actor, bool) {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(shared.Actor); ok {
			return actor, true
		}
	}
	return shared.Actor{}, false
}

// RequireRoles aborts with 403 unless the actor holds one of the roles
func RequireRoles(roles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing caller identity",
				},
			})
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Role " + string(actor.Role) + " is not permitted to perform this operation",
			},
		})
	}
}
