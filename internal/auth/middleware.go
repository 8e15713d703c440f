package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: message, Kind: apperror.KindForbidden})
}

// AuthRequired validates the bearer token and stores the actor in the context.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing Authorization header")
			return
		}

		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			unauthorized(c, "invalid Authorization header format")
			return
		}

		claims, err := jwtManager.ParseAndValidate(strings.TrimSpace(tokenStr))
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserEmail, strings.ToLower(strings.TrimSpace(claims.Email)))
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

// RequireStaff rejects callers without the staff role.
// It MUST be used after AuthRequired.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Error: "forbidden: staff access required",
				Kind:  apperror.KindForbidden,
			})
			return
		}
		c.Next()
	}
}
