package middleware

import (
	"strings"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/cache"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/jwt"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/logger"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates requests and runs the authorization gate.
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.Manager
	tokenStore  *cache.TokenStore
}

func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{
		userService: services.NewUserService(),
		jwtManager:  jwt.GetManager(),
		tokenStore:  database.GetTokenStore(),
	}
}

// NewAuthMiddlewareWith wires explicit collaborators. Used by tests.
func NewAuthMiddlewareWith(userService *services.UserService, jwtManager *jwt.Manager, tokenStore *cache.TokenStore) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		jwtManager:  jwtManager,
		tokenStore:  tokenStore,
	}
}

// RequireLogin validates the bearer token, rejects revoked and locked
// sessions and loads the principal into the context.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}

		tokenString := authHeader[7:]

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		if m.tokenStore != nil {
			revoked, err := m.tokenStore.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// treat the blacklist as advisory when redis is down
				logger.GetLogger().Warnf("token store check failed: %v", err)
			} else if revoked {
				response.Unauthorized(c, "session closed")
				c.Abort()
				return
			}
		}

		user, err := m.userService.GetByID(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "user not found")
			c.Abort()
			return
		}

		if !user.IsActive {
			response.Unauthorized(c, "account disabled")
			c.Abort()
			return
		}
		if user.IsLocked() {
			response.Unauthorized(c, "account temporarily locked")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("claims", claims)
		c.Set("token", tokenString)

		c.Next()
	}
}

// RequirePasswordChanged blocks access while a forced password change is
// pending. Applied to every protected group except the change-password
// endpoint itself.
func (m *AuthMiddleware) RequirePasswordChanged() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		if user.PasswordResetRequired {
			response.Forbidden(c, "password change required before continuing")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated principal from the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get("user"); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
