package main

import (
	"fmt"
	"strconv"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/logger"

	"gorm.io/gorm"
)

// Protected resource names seeded into the registry. Domain resources such
// as materiales or contratos are plain records elsewhere; here they only
// exist as permission targets.
var seedResources = []string{
	"usuarios",
	"roles",
	"permisos",
	"auditoria",
	"empleados",
	"materiales",
	"contratos",
	"ordenes-trabajo",
	"planes",
}

// seedData initializes permissions, the system admin role and the default
// superuser.
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	if err := initializePermissions(db); err != nil {
		return fmt.Errorf("failed to initialize permissions: %v", err)
	}

	if err := createAdminRole(db); err != nil {
		return fmt.Errorf("failed to create admin role: %v", err)
	}

	if err := createDefaultAdmin(db); err != nil {
		return fmt.Errorf("failed to create default admin: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// initializePermissions creates the full resource x action grid, skipping
// pairs that already exist.
func initializePermissions(db *gorm.DB) error {
	for _, resource := range seedResources {
		for _, action := range models.Actions {
			var count int64
			db.Model(&models.Permission{}).
				Where("resource = ? AND action = ?", resource, action).
				Count(&count)
			if count > 0 {
				continue
			}

			permission := &models.Permission{
				Resource:    resource,
				Action:      action,
				Description: fmt.Sprintf("%s %s", action, resource),
				IsActive:    true,
			}
			if err := db.Create(permission).Error; err != nil {
				return err
			}
		}
	}

	logger.GetLogger().Info("Permission registry seeded")
	return nil
}

// createAdminRole creates the protected system role holding every
// permission.
func createAdminRole(db *gorm.DB) error {
	var count int64
	db.Model(&models.Role{}).Where("name = ?", "Administrador").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("Admin role already exists, skipping")
		return nil
	}

	role := &models.Role{
		Name:        "Administrador",
		Description: "System administration role",
		IsActive:    true,
		IsSystem:    true,
	}
	if err := db.Create(role).Error; err != nil {
		return err
	}

	var permissions []models.Permission
	if err := db.Scopes(models.Active).Find(&permissions).Error; err != nil {
		return err
	}
	if err := db.Model(role).Association("Permissions").Replace(permissions); err != nil {
		return err
	}

	logger.GetLogger().Info("Admin role created")
	return nil
}

// createDefaultAdmin creates the initial superuser at the base of the
// manual code range.
func createDefaultAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("is_superuser = ?", true).Count(&count)
	if count > 0 {
		logger.GetLogger().Info("Superuser already exists, skipping")
		return nil
	}

	var role models.Role
	if err := db.Where("name = ?", "Administrador").First(&role).Error; err != nil {
		return err
	}

	user := &models.User{
		Code:                  models.ManualCodeBase,
		FirstName:             "Administrador",
		LastNameFather:        "Sistema",
		LastNameMother:        "Cotel",
		RoleID:                &role.ID,
		IsActive:              true,
		IsSuperuser:           true,
		PasswordChanged:       false,
		PasswordResetRequired: true,
	}
	if err := user.SetPassword(strconv.Itoa(models.ManualCodeBase)); err != nil {
		return err
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}

	logger.GetLogger().Infof("Default superuser created with code %d", user.Code)
	return nil
}
