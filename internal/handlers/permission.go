package handlers

import (
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/pagination"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreatePermissionRequest struct {
	Resource    string `json:"resource" binding:"required,resource_code"`
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

type UpdatePermissionRequest struct {
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active" binding:"required"`
}

type PermissionHandler struct {
	service *services.PermissionService
	audit   *services.AuditService
}

func NewPermissionHandler(service *services.PermissionService, audit *services.AuditService) *PermissionHandler {
	return &PermissionHandler{
		service: service,
		audit:   audit,
	}
}

// Create registers a (resource, action) pair.
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	actor := middleware.CurrentUser(c)
	var creatorID *uint
	if actor != nil {
		creatorID = &actor.ID
	}

	permission, err := h.service.Create(req.Resource, req.Action, req.Description, creatorID)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	h.audit.Record(actor, models.AuditActionCreate, permission, auditContext(c, nil))
	response.Success(c, permission)
}

// GetByID fetches one permission.
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	permission, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	response.Success(c, permission)
}

// GetAll lists permissions with filters and paging.
func (h *PermissionHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	resource := c.Query("resource")
	action := c.Query("action")
	scope := c.Query("scope")

	permissions, total, err := h.service.GetWithPage(resource, action, scope, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, permissions, pageInfo)
}

// Update changes description and active flag.
func (h *PermissionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	permission, err := h.service.Update(id, req.Description, *req.IsActive)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionUpdate, permission, auditContext(c, nil))
	response.Success(c, permission)
}

// Delete soft-deletes a permission. Refused while roles still hold it.
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	permission, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	actor := middleware.CurrentUser(c)
	var actorID *uint
	if actor != nil {
		actorID = &actor.ID
	}

	if err := h.service.Delete(id, actorID); err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	h.audit.Record(actor, models.AuditActionDelete, permission, auditContext(c, nil))
	response.SuccessWithMessage(c, "permission deleted", nil)
}

// Restore clears the logical delete on a permission.
func (h *PermissionHandler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	permission, err := h.service.Restore(id)
	if err != nil {
		respondServiceError(c, err, "permission not found")
		return
	}

	h.audit.Record(middleware.CurrentUser(c), models.AuditActionRestore, permission, auditContext(c, nil))
	response.Success(c, permission)
}
