package database

import (
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/logger"
)

// Migrate runs the schema migration. The employee directory table is a
// foreign table maintained by the directory side and is deliberately not
// migrated here.
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.AuditLog{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
