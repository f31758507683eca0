package handlers

import (
	"strconv"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/pagination"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditLogHandler exposes the read-only log surface. There is deliberately
// no update or delete endpoint.
type AuditLogHandler struct {
	service *services.AuditService
}

func NewAuditLogHandler(service *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{
		service: service,
	}
}

// GetAll lists entries newest first.
func (h *AuditLogHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	action := c.Query("action")
	targetType := c.Query("target_type")

	var actorID *uint
	if actorStr := c.Query("actor_id"); actorStr != "" {
		id, err := strconv.ParseUint(actorStr, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid actor_id")
			return
		}
		actorIDVal := uint(id)
		actorID = &actorIDVal
	}

	entries, total, err := h.service.GetWithPage(actorID, action, targetType, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "query failed")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, entries, pageInfo)
}

// GetByID fetches one entry.
func (h *AuditLogHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entry, err := h.service.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "audit entry not found")
		return
	}

	response.Success(c, entry)
}
