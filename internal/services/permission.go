package services

import (
	"regexp"
	"strings"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"

	"gorm.io/gorm"
)

// PermissionService manages the (resource, action) registry.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService() *PermissionService {
	return &PermissionService{
		db: database.GetDB(),
	}
}

// NewPermissionServiceWithDB creates the service on an explicit handle.
func NewPermissionServiceWithDB(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

var resourcePattern = regexp.MustCompile(`^[a-z0-9\-_]+$`)

// NormalizeResource lowercases and trims a resource name.
func NormalizeResource(resource string) string {
	return strings.ToLower(strings.TrimSpace(resource))
}

// ========== Basic CRUD ==========

// Create registers a new (resource, action) pair. The pair must be unique
// among non-deleted rows.
func (s *PermissionService) Create(resource, action, description string, createdBy *uint) (*models.Permission, error) {
	resource = NormalizeResource(resource)
	if !resourcePattern.MatchString(resource) {
		return nil, errs.NewValidation("resource", "must contain only lowercase letters, digits, hyphen or underscore")
	}
	if !models.IsValidAction(action) {
		return nil, errs.NewValidation("action", "must be one of %s", strings.Join(models.Actions, ", "))
	}

	var count int64
	s.db.Model(&models.Permission{}).Scopes(models.Active).
		Where("resource = ? AND action = ?", resource, action).Count(&count)
	if count > 0 {
		return nil, errs.NewValidation("resource", "permission %s:%s already exists", resource, action)
	}

	permission := &models.Permission{
		Resource:    resource,
		Action:      action,
		Description: description,
		IsActive:    true,
		CreatedByID: createdBy,
	}

	err := s.db.Create(permission).Error
	return permission, err
}

// GetByID fetches a non-deleted permission.
func (s *PermissionService) GetByID(id uint) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.Scopes(models.Active).First(&permission, id).Error
	return &permission, err
}

// GetWithPage lists permissions with filtering. scope picks the soft-delete
// visibility: "" (active), "all" or "deleted".
func (s *PermissionService) GetWithPage(resource, action, scope string, page, pageSize int) ([]*models.Permission, int64, error) {
	var permissions []*models.Permission
	var total int64

	query := s.db.Model(&models.Permission{}).Scopes(models.Scope(scope))
	if resource != "" {
		query = query.Where("resource = ?", NormalizeResource(resource))
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("resource, action").Offset(offset).Limit(pageSize).Find(&permissions).Error
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

// Update changes the description and active flag. Resource and action are
// the identity of the row and stay immutable.
func (s *PermissionService) Update(id uint, description string, isActive bool) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.Scopes(models.Active).First(&permission, id).Error
	if err != nil {
		return nil, err
	}

	permission.Description = description
	permission.IsActive = isActive

	err = s.db.Save(&permission).Error
	return &permission, err
}

// ========== Lifecycle ==========

// IsInUse reports whether any active, non-deleted role still holds the
// permission.
func (s *PermissionService) IsInUse(id uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.RolePermission{}).
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("role_permissions.permission_id = ?", id).
		Where("roles.deleted = ? AND roles.is_active = ?", false, true).
		Count(&count).Error
	return count > 0, err
}

// Delete soft-deletes a permission. Refused while any active role still
// references it.
func (s *PermissionService) Delete(id uint, deletedBy *uint) error {
	var permission models.Permission
	if err := s.db.Scopes(models.Active).First(&permission, id).Error; err != nil {
		return err
	}

	inUse, err := s.IsInUse(id)
	if err != nil {
		return err
	}
	if inUse {
		return errs.NewConflict("permission %s:%s is assigned to active roles", permission.Resource, permission.Action)
	}

	return s.db.Model(&models.Permission{}).Where("id = ?", id).
		Updates(models.SoftDeleteValues(deletedBy)).Error
}

// Restore clears the logical delete on a permission.
func (s *PermissionService) Restore(id uint) (*models.Permission, error) {
	var permission models.Permission
	if err := s.db.Scopes(models.OnlyDeleted).First(&permission, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Permission{}).Where("id = ?", id).
		Updates(models.RestoreValues()).Error; err != nil {
		return nil, err
	}
	permission.ClearDeleted()
	return &permission, nil
}

// HardDelete physically removes a permission and its role links. Bypasses
// the in-use check: maintenance paths only, never wired to a handler.
func (s *PermissionService) HardDelete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Permission{}, id).Error
	})
}
