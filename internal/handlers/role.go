package handlers

import (
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/pagination"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CreateRoleRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PermissionIDs []uint `json:"permission_ids"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active" binding:"required"`
}

type SetPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

type CloneRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type RoleHandler struct {
	service *services.RoleService
	audit   *services.AuditService
}

func NewRoleHandler(service *services.RoleService, audit *services.AuditService) *RoleHandler {
	return &RoleHandler{
		service: service,
		audit:   audit,
	}
}

// ========== Basic CRUD ==========

// Create registers a role with an optional initial permission set.
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.CurrentUser(c)
	var creatorID *uint
	if actor != nil {
		creatorID = &actor.ID
	}

	role, err := h.service.Create(req.Name, req.Description, req.PermissionIDs, creatorID)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	h.audit.Record(actor, models.AuditActionCreate, role, auditContext(c, nil))
	response.Success(c, role)
}

// GetByID fetches one role with its permission set.
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	role, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	response.Success(c, role)
}

// GetAll lists roles.
func (h *RoleHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	keyword := c.Query("keyword")
	scope := c.Query("scope")

	roles, total, err := h.service.GetWithPage(keyword, scope, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, roles, pageInfo)
}

// Update changes name, description and active flag.
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	role, err := h.service.Update(id, req.Name, req.Description, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionUpdate, role, auditContext(c, nil))
	response.Success(c, role)
}

// Delete soft-deletes a role.
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	role, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	actor := middleware.CurrentUser(c)
	var actorID *uint
	if actor != nil {
		actorID = &actor.ID
	}

	if err := h.service.Delete(id, actorID); err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(actor, models.AuditActionDelete, role, auditContext(c, nil))
	response.SuccessWithMessage(c, "role deleted", nil)
}

// Restore clears the logical delete on a role.
func (h *RoleHandler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	role, err := h.service.Restore(id)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionRestore, role, auditContext(c, nil))
	response.Success(c, role)
}

// ========== Permission set ==========

// SetPermissions replaces the role's whole permission set.
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	role, err := h.service.SetPermissions(id, req.PermissionIDs)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionUpdate, role, auditContext(c, datatypes.JSONMap{
		"permission_ids": req.PermissionIDs,
	}))
	response.Success(c, role)
}

// GetPermissions lists the role's permission set.
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	permissions, err := h.service.GetPermissions(id)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	response.Success(c, permissions)
}

// Clone creates a new role with the same permission set.
func (h *RoleHandler) Clone(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CloneRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.CurrentUser(c)
	var creatorID *uint
	if actor != nil {
		creatorID = &actor.ID
	}

	role, err := h.service.Clone(id, req.Name, creatorID)
	if err != nil {
		respondServiceError(c, err, "role not found")
		return
	}

	h.audit.Record(actor, models.AuditActionCreate, role, auditContext(c, datatypes.JSONMap{
		"cloned_from": id,
	}))
	response.Success(c, role)
}
