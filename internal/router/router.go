package router

import (
	"regexp"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/handlers"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/middleware"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/services"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Resource names declared by the endpoint groups below. The gate resolves
// verbs per request; the seed creates the matching registry rows.
const (
	ResourceUsers       = "usuarios"
	ResourceRoles       = "roles"
	ResourcePermissions = "permisos"
	ResourceAuditLogs   = "auditoria"
	ResourceEmployees   = "empleados"
)

var resourceCodePattern = regexp.MustCompile(`^[a-z0-9\-_]+$`)

// registerValidators installs the custom binding validations.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("resource_code", func(fl validator.FieldLevel) bool {
			return resourceCodePattern.MatchString(fl.Field().String())
		})
	}
}

// SetupRouter builds the engine with middleware and all routes.
func SetupRouter() *gin.Engine {
	registerValidators()

	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestID())
	router.Use(middleware.SetupCORS())

	registerRoutes(router)
	return router
}

func registerRoutes(router *gin.Engine) {

	auth := middleware.NewAuthMiddleware()

	userService := services.NewUserService()
	auditService := services.NewAuditService()

	api := router.Group("/api/v1")
	{
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// authentication (login is public, the rest requires a session)
		authHandler := handlers.NewAuthHandler(userService, auditService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
			authGroup.POST("/refresh", auth.RequireLogin(), authHandler.Refresh)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
			// the one mutation allowed while a password change is pending
			authGroup.POST("/change-password", auth.RequireLogin(), authHandler.ChangePassword)
		}

		// everything below is gated on a completed first password change
		protected := api.Group("", auth.RequireLogin(), auth.RequirePasswordChanged())

		userHandler := handlers.NewUserHandler(userService, auditService)
		users := protected.Group("/users")
		{
			users.POST("", auth.Authorize(ResourceUsers, "create"), userHandler.Create)
			users.GET("", auth.Authorize(ResourceUsers), userHandler.GetAll)
			users.GET("/available-code", auth.Authorize(ResourceUsers, "available_code"), userHandler.AvailableCode)
			users.GET("/stats", auth.Authorize(ResourceUsers, "stats"), userHandler.GetStats)
			users.GET("/:id", auth.AuthorizeSelfOr(ResourceUsers), userHandler.GetByID)
			users.PUT("/:id", auth.AuthorizeSelfOr(ResourceUsers, "update"), userHandler.Update)
			users.DELETE("/:id", auth.Authorize(ResourceUsers, "destroy"), userHandler.Delete)

			users.POST("/migrate", auth.Authorize(ResourceUsers, "migrate"), userHandler.Migrate)
			users.POST("/:id/restore", auth.Authorize(ResourceUsers, "restore"), userHandler.Restore)
			users.POST("/:id/reset-password", auth.AuthorizeSelfOr(ResourceUsers, "reset_password"), userHandler.ResetPassword)
			users.POST("/:id/role", auth.Authorize(ResourceUsers, "assign_role"), userHandler.AssignRole)
			users.DELETE("/:id/role", auth.Authorize(ResourceUsers, "revoke_role"), userHandler.RevokeRole)
			users.GET("/:id/check-permission", auth.AuthorizeSelfOr(ResourceUsers, "check"), userHandler.CheckPermission)
		}

		roleHandler := handlers.NewRoleHandler(services.NewRoleService(), auditService)
		roles := protected.Group("/roles")
		{
			roles.POST("", auth.Authorize(ResourceRoles, "create"), roleHandler.Create)
			roles.GET("", auth.Authorize(ResourceRoles), roleHandler.GetAll)
			roles.GET("/:id", auth.Authorize(ResourceRoles), roleHandler.GetByID)
			roles.PUT("/:id", auth.Authorize(ResourceRoles, "update"), roleHandler.Update)
			roles.DELETE("/:id", auth.Authorize(ResourceRoles, "destroy"), roleHandler.Delete)

			roles.POST("/:id/restore", auth.Authorize(ResourceRoles, "restore"), roleHandler.Restore)
			roles.POST("/:id/clone", auth.Authorize(ResourceRoles, "clone"), roleHandler.Clone)
			roles.PUT("/:id/permissions", auth.Authorize(ResourceRoles, "set_permissions"), roleHandler.SetPermissions)
			roles.GET("/:id/permissions", auth.Authorize(ResourceRoles), roleHandler.GetPermissions)
		}

		permissionHandler := handlers.NewPermissionHandler(services.NewPermissionService(), auditService)
		permissions := protected.Group("/permissions")
		{
			permissions.POST("", auth.Authorize(ResourcePermissions, "create"), permissionHandler.Create)
			permissions.GET("", auth.Authorize(ResourcePermissions), permissionHandler.GetAll)
			permissions.GET("/:id", auth.Authorize(ResourcePermissions), permissionHandler.GetByID)
			permissions.PUT("/:id", auth.Authorize(ResourcePermissions, "update"), permissionHandler.Update)
			permissions.DELETE("/:id", auth.Authorize(ResourcePermissions, "destroy"), permissionHandler.Delete)
			permissions.POST("/:id/restore", auth.Authorize(ResourcePermissions, "restore"), permissionHandler.Restore)
		}

		employeeHandler := handlers.NewEmployeeHandler(services.NewEmployeeService())
		employees := protected.Group("/employees")
		{
			employees.GET("", auth.Authorize(ResourceEmployees), employeeHandler.GetAll)
			employees.GET("/:code", auth.Authorize(ResourceEmployees), employeeHandler.GetByCode)
		}

		auditHandler := handlers.NewAuditLogHandler(auditService)
		auditLogs := protected.Group("/audit-logs")
		{
			// read-only surface, entries are immutable
			auditLogs.GET("", auth.Authorize(ResourceAuditLogs), auditHandler.GetAll)
			auditLogs.GET("/:id", auth.Authorize(ResourceAuditLogs), auditHandler.GetByID)
		}
	}
}


func healthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

func ping(c *gin.Context) {
	response.Success(c, gin.H{"message": "pong"})
}
