package handlers

import (
	"errors"
	"time"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/cache"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/jwt"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	audit       *services.AuditService
	jwtManager  *jwt.Manager
	tokenStore  *cache.TokenStore
}

func NewAuthHandler(userService *services.UserService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		audit:       audit,
		jwtManager:  jwt.GetManager(),
		tokenStore:  database.GetTokenStore(),
	}
}

type LoginRequest struct {
	Code     uint   `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token                 string   `json:"token"`
	ExpiresAt             int64    `json:"expires_at"`
	PasswordResetRequired bool     `json:"password_reset_required"`
	User                  UserInfo `json:"user"`
}

type UserInfo struct {
	ID          uint   `json:"id"`
	Code        uint   `json:"code"`
	FullName    string `json:"full_name"`
	RoleID      *uint  `json:"role_id,omitempty"`
	IsSuperuser bool   `json:"is_superuser"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Login authenticates by code and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(req.Code, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountLocked):
			response.Unauthorized(c, "account temporarily locked, try again later")
		case errors.Is(err, services.ErrAccountDisabled):
			response.Unauthorized(c, "account disabled")
		case errors.Is(err, services.ErrInvalidCredentials):
			response.Unauthorized(c, "invalid code or password")
		default:
			response.ServerError(c, "login failed")
		}
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Code, user.IsSuperuser)
	if err != nil {
		response.ServerError(c, "failed to issue token")
		return
	}

	h.audit.Record(user, models.AuditActionLogin, user, auditContext(c, nil))

	expiresAt := time.Now().Add(h.jwtManager.GetTokenDuration()).Unix()

	response.Success(c, LoginResponse{
		Token:                 token,
		ExpiresAt:             expiresAt,
		PasswordResetRequired: user.PasswordResetRequired,
		User: UserInfo{
			ID:          user.ID,
			Code:        user.Code,
			FullName:    user.FullName(),
			RoleID:      user.RoleID,
			IsSuperuser: user.IsSuperuser,
		},
	})
}

// Logout revokes the current token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if claimsVal, exists := c.Get("claims"); exists {
		if claims, ok := claimsVal.(*jwt.Claims); ok && h.tokenStore != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			// best effort, an expired or unknown token is already out
			_ = h.tokenStore.Revoke(c.Request.Context(), claims.ID, ttl)
		}
	}

	if user != nil {
		h.audit.Record(user, models.AuditActionLogout, user, auditContext(c, nil))
	}

	response.SuccessWithMessage(c, "logged out", nil)
}

// Refresh issues a fresh token from the current one.
func (h *AuthHandler) Refresh(c *gin.Context) {
	tokenVal, exists := c.Get("token")
	if !exists {
		response.Unauthorized(c, "login required")
		return
	}

	token, err := h.jwtManager.RefreshToken(tokenVal.(string))
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(h.jwtManager.GetTokenDuration()).Unix(),
	})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "login required")
		return
	}
	response.Success(c, user)
}

// ChangePassword replaces the caller's own credential and clears the
// forced-change flag.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Unauthorized(c, "login required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.userService.ChangePassword(user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(user, models.AuditActionPasswordChange, updated, auditContext(c, nil))

	response.SuccessWithMessage(c, "password changed", nil)
}
