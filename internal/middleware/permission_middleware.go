package middleware

import (
	"net/http"
	"strconv"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// ========== Action resolution tables ==========

// Read-only HTTP methods always resolve to the read verb.
var readMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// The four CRUD operation names.
var crudOperationActions = map[string]string{
	"create":         models.ActionCreate,
	"update":         models.ActionUpdate,
	"partial_update": models.ActionUpdate,
	"destroy":        models.ActionDelete,
}

// Custom operation names. A static table, not reflection over handler
// names: the mapping from operation to verb is permission semantics, not a
// naming convention.
var customOperationActions = map[string]string{
	"activate":        models.ActionUpdate,
	"deactivate":      models.ActionUpdate,
	"restore":         models.ActionUpdate,
	"lock":            models.ActionUpdate,
	"unlock":          models.ActionUpdate,
	"reset_password":  models.ActionUpdate,
	"assign_role":     models.ActionUpdate,
	"revoke_role":     models.ActionUpdate,
	"set_permissions": models.ActionUpdate,
	"clone":           models.ActionCreate,
	"migrate":         models.ActionCreate,
	"available_code":  models.ActionRead,
	"stats":           models.ActionRead,
	"check":           models.ActionRead,
}

// Raw HTTP verb fallback for mutations without a named operation.
var methodActions = map[string]string{
	http.MethodPost:   models.ActionCreate,
	http.MethodPut:    models.ActionUpdate,
	http.MethodPatch:  models.ActionUpdate,
	http.MethodDelete: models.ActionDelete,
}

// ResolveAction maps an HTTP method plus an optional named operation to one
// of the four permission verbs. Resolution order: read-only methods, CRUD
// operation names, the custom operation table, then the raw method.
func ResolveAction(method, operation string) (string, bool) {
	if readMethods[method] {
		return models.ActionRead, true
	}
	if operation != "" {
		if action, ok := crudOperationActions[operation]; ok {
			return action, true
		}
		if action, ok := customOperationActions[operation]; ok {
			return action, true
		}
	}
	if action, ok := methodActions[method]; ok {
		return action, true
	}
	return "", false
}

// Check is the gate decision: fixed precedence, first match wins.
func Check(user *models.User, resource, method, operation string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	if !user.IsActive || user.Deleted {
		return false
	}
	if resource == "" {
		return false
	}
	action, ok := ResolveAction(method, operation)
	if !ok {
		return false
	}
	return user.HasPermission(resource, action)
}

// ========== Gate middlewares ==========

// Authorize guards an endpoint group declared under a resource name. The
// optional operation string feeds the action table for non-CRUD routes.
func (m *AuthMiddleware) Authorize(resource string, operation ...string) gin.HandlerFunc {
	op := ""
	if len(operation) > 0 {
		op = operation[0]
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		if !Check(user, resource, c.Request.Method, op) {
			response.Forbidden(c, "insufficient permissions for "+resource)
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthorizeSelfOr lets a principal through when the :id parameter is their
// own identity, otherwise falls back to the resource-level gate.
func (m *AuthMiddleware) AuthorizeSelfOr(resource string, operation ...string) gin.HandlerFunc {
	op := ""
	if len(operation) > 0 {
		op = operation[0]
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c, "login required")
			c.Abort()
			return
		}

		if idStr := c.Param("id"); idStr != "" {
			if id, err := strconv.ParseUint(idStr, 10, 32); err == nil && uint(id) == user.ID {
				c.Next()
				return
			}
		}

		if !Check(user, resource, c.Request.Method, op) {
			response.Forbidden(c, "insufficient permissions for "+resource)
			c.Abort()
			return
		}

		c.Next()
	}
}
