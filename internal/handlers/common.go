package handlers

import (
	"errors"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// respondServiceError maps the service error taxonomy to response codes:
// validation -> 400, domain conflict -> 409, missing row -> 404, the rest
// -> 500.
func respondServiceError(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errs.IsValidation(err):
		response.BadRequest(c, err.Error())
	case errs.IsConflict(err):
		response.Conflict(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, notFoundMsg)
	default:
		response.ServerError(c, "operation failed")
	}
}

// auditContext collects the request metadata for a log entry.
func auditContext(c *gin.Context, details datatypes.JSONMap) *services.AuditContext {
	if details == nil {
		details = datatypes.JSONMap{}
	}
	if requestID := middleware.GetRequestID(c); requestID != "" {
		details["request_id"] = requestID
	}
	return &services.AuditContext{
		Details:   details,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
