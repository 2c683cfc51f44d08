package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
)

// Context keys set by Authenticate.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Authenticate requires a valid "Authorization: Bearer <token>" header.
func Authenticate(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(apperrors.ErrNoToken.Code, apperrors.ErrNoToken)
			return
		}

		claims, err := tokens.ParseAndValidateToken(strings.TrimSpace(tokenStr), TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(apperrors.ErrInvalidToken.Code, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != RoleAdmin {
			err := apperrors.New(apperrors.ErrForbidden.Code, "Not authorized as an admin", nil)
			c.AbortWithStatusJSON(err.Code, err)
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the identity stored by Authenticate.
func CurrentClaims(c *gin.Context) (Claims, bool) {
	uid := c.GetString(ContextUserID)
	if uid == "" {
		return Claims{}, false
	}
	return Claims{UserID: uid, Email: c.GetString(ContextEmail), Role: c.GetString(ContextRole)}, true
}
