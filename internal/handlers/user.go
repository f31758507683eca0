package handlers

import (
	"strconv"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/pagination"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CreateUserRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastNameFather string `json:"last_name_father" binding:"required"`
	LastNameMother string `json:"last_name_mother" binding:"required"`
	RoleID         uint   `json:"role_id" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName      string `json:"first_name"`
	LastNameFather string `json:"last_name_father"`
	LastNameMother string `json:"last_name_mother"`
}

type MigrateUserRequest struct {
	EmployeeCode uint  `json:"employee_code" binding:"required"`
	RoleID       *uint `json:"role_id"`
}

type AssignRoleRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

type UserHandler struct {
	service *services.UserService
	audit   *services.AuditService
}

func NewUserHandler(service *services.UserService, audit *services.AuditService) *UserHandler {
	return &UserHandler{
		service: service,
		audit:   audit,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// ========== Basic CRUD ==========

// Create registers a manual user with an auto-assigned code.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.CurrentUser(c)
	var creatorID *uint
	if actor != nil {
		creatorID = &actor.ID
	}

	user, err := h.service.CreateManual(req.FirstName, req.LastNameFather, req.LastNameMother, req.RoleID, creatorID)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(actor, models.AuditActionCreate, user, auditContext(c, nil))
	response.Success(c, user)
}

// Migrate copies a directory record into a user.
func (h *UserHandler) Migrate(c *gin.Context) {
	var req MigrateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.CurrentUser(c)
	var creatorID *uint
	if actor != nil {
		creatorID = &actor.ID
	}

	user, err := h.service.MigrateFromDirectory(req.EmployeeCode, req.RoleID, creatorID)
	if err != nil {
		respondServiceError(c, err, "employee not found")
		return
	}

	h.audit.Record(actor, models.AuditActionMigrateUser, user, auditContext(c, datatypes.JSONMap{
		"employee_code": req.EmployeeCode,
	}))
	response.Success(c, user)
}

// GetByID fetches one user.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	response.Success(c, user)
}

// GetAll lists users with filters and paging.
func (h *UserHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	keyword := c.Query("keyword")
	scope := c.Query("scope")   // "", "all", "deleted"
	origin := c.Query("origin") // "", "manual", "migrated"

	var roleID *uint
	if roleIDStr := c.Query("role_id"); roleIDStr != "" {
		id, err := strconv.ParseUint(roleIDStr, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid role_id")
			return
		}
		roleIDVal := uint(id)
		roleID = &roleIDVal
	}

	users, total, err := h.service.GetWithFiltersAndPage(keyword, scope, origin, roleID, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// Update changes the name fields.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.service.Update(id, req.FirstName, req.LastNameFather, req.LastNameMother)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionUpdate, user, auditContext(c, nil))
	response.Success(c, user)
}

// Delete deactivates a user (soft delete).
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// snapshot before the delete so the audit entry keeps a readable label
	user, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	actor := middleware.CurrentUser(c)
	var actorID *uint
	if actor != nil {
		actorID = &actor.ID
	}

	if err := h.service.Deactivate(id, actorID); err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(actor, models.AuditActionDeactivateUser, user, auditContext(c, nil))
	response.SuccessWithMessage(c, "user deactivated", nil)
}

// Restore reactivates a soft-deleted user.
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.Restore(id)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionActivateUser, user, auditContext(c, nil))
	response.Success(c, user)
}

// ========== Credentials and roles ==========

// ResetPassword puts the credential back to the stringified code.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actor := middleware.CurrentUser(c)
	var actorID *uint
	if actor != nil {
		actorID = &actor.ID
	}

	user, err := h.service.ResetPassword(id, actorID)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(actor, models.AuditActionPasswordReset, user, auditContext(c, nil))
	response.SuccessWithMessage(c, "password reset", nil)
}

// AssignRole binds the user to a role.
func (h *UserHandler) AssignRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.service.AssignRole(id, req.RoleID)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionAssignRole, user, auditContext(c, datatypes.JSONMap{
		"role_id": req.RoleID,
	}))
	response.Success(c, user)
}

// RevokeRole unbinds the user from its role.
func (h *UserHandler) RevokeRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.RevokeRole(id)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionRevokeRole, user, auditContext(c, nil))
	response.Success(c, user)
}

// ========== Queries ==========

// AvailableCode previews the next free manual code.
func (h *UserHandler) AvailableCode(c *gin.Context) {
	code, err := h.service.GenerateAvailableCode()
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}
	response.Success(c, gin.H{"code": code})
}

// GetStats summarizes the user population.
func (h *UserHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}
	response.Success(c, stats)
}

// CheckPermission resolves a (resource, action) grant for a user.
func (h *UserHandler) CheckPermission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resource := services.NormalizeResource(c.Query("resource"))
	action := c.Query("action")
	if resource == "" || !models.IsValidAction(action) {
		response.BadRequest(c, "resource and a valid action are required")
		return
	}

	allowed, err := h.service.HasPermission(id, resource, action)
	if err != nil {
		respondServiceError(c, err, "user not found")
		return
	}

	response.Success(c, gin.H{
		"resource": resource,
		"action":   action,
		"allowed":  allowed,
	})
}
