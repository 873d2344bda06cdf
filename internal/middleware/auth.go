// File: internal/middleware/auth.go
package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/profile"
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// ProfileResolver maps a verified identity to a local profile.
type ProfileResolver interface {
	ResolveFromToken(ctx context.Context, id profile.Identity) (*profile.Profile, error)
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// AuthMiddleware creates a Gin middleware for Firebase ID token authentication.
// The caller's profile is created on first sight.
func AuthMiddleware(verifier TokenVerifier, profiles ProfileResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(common.AuthorizationHeader) == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}
		idToken := common.GetTokenFromContext(c)
		if idToken == "" {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired ID token."))
			return
		}

		p, err := profiles.ResolveFromToken(c.Request.Context(), profile.Identity{
			FirebaseUID: token.UID,
			Email:       claimString(token.Claims, "email"),
			Name:        claimString(token.Claims, "name"),
			Role:        claimString(token.Claims, "role"),
		})
		if err != nil {
			logger.Error("Failed to resolve profile for token", zap.String("firebaseUID", token.UID), zap.Error(err))
			common.RespondWithError(c, err)
			return
		}

		c.Set(common.FirebaseUIDKey, token.UID)
		c.Set(common.UserIDKey, p.ID)
		c.Set(common.UserRoleKey, p.Role)

		logger.Debug("User authenticated successfully",
			zap.String("userID", p.ID.String()),
			zap.String("role", p.Role),
		)
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user
// has one of the required roles. Admins always pass.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}
		if userRole == common.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
