package services

import (
	"fmt"
	"testing"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.AuditLog{},
		&models.Employee{},
	)
	require.NoError(t, err)

	return db
}

// seedPermission inserts a permission directly.
func seedPermission(t *testing.T, db *gorm.DB, resource, action string) *models.Permission {
	t.Helper()
	p := &models.Permission{Resource: resource, Action: action, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

// seedRole inserts a role with the given permissions.
func seedRole(t *testing.T, db *gorm.DB, name string, permissions ...*models.Permission) *models.Role {
	t.Helper()
	r := &models.Role{Name: name, IsActive: true}
	require.NoError(t, db.Create(r).Error)
	for _, p := range permissions {
		require.NoError(t, db.Create(&models.RolePermission{RoleID: r.ID, PermissionID: p.ID}).Error)
	}
	return r
}

// seedEmployee inserts a directory record.
func seedEmployee(t *testing.T, db *gorm.DB, code uint, status string) *models.Employee {
	t.Helper()
	e := &models.Employee{
		Code:           code,
		FirstName:      "Juan",
		LastNameFather: "Perez",
		LastNameMother: "Mamani",
		Status:         status,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}
