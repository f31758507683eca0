package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"

	"gorm.io/gorm"
)

// RoleService manages roles and their permission sets.
type RoleService struct {
	db *gorm.DB
}

func NewRoleService() *RoleService {
	return &RoleService{
		db: database.GetDB(),
	}
}

// NewRoleServiceWithDB creates the service on an explicit handle.
func NewRoleServiceWithDB(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// ========== Validation ==========

// ValidateName checks the trimmed role name length.
func (s *RoleService) ValidateName(name string) error {
	runeCount := utf8.RuneCountInString(name)
	if runeCount < 2 || runeCount > 100 {
		return errs.NewValidation("name", "must be between 2 and 100 characters")
	}
	return nil
}

// nameTaken checks case-insensitive uniqueness among non-deleted roles.
func (s *RoleService) nameTaken(name string, excludeID uint) bool {
	var count int64
	query := s.db.Model(&models.Role{}).Scopes(models.Active).
		Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	query.Count(&count)
	return count > 0
}

// resolvePermissions loads every requested permission or fails naming the
// IDs that do not resolve among non-deleted rows.
func resolvePermissions(tx *gorm.DB, permissionIDs []uint) ([]models.Permission, error) {
	if len(permissionIDs) == 0 {
		return nil, nil
	}

	var permissions []models.Permission
	if err := tx.Scopes(models.Active).Where("id IN ?", permissionIDs).Find(&permissions).Error; err != nil {
		return nil, err
	}

	if len(permissions) != len(permissionIDs) {
		found := make(map[uint]bool, len(permissions))
		for _, p := range permissions {
			found[p.ID] = true
		}
		var missing []string
		for _, id := range permissionIDs {
			if !found[id] {
				missing = append(missing, fmt.Sprintf("%d", id))
			}
		}
		return nil, errs.NewValidation("permission_ids", "unknown permissions: %s", strings.Join(missing, ", "))
	}

	return permissions, nil
}

// ========== Basic CRUD ==========

// Create registers a role with an optional initial permission set. The
// whole call commits atomically or not at all.
func (s *RoleService) Create(name, description string, permissionIDs []uint, createdBy *uint) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if err := s.ValidateName(name); err != nil {
		return nil, err
	}
	if s.nameTaken(name, 0) {
		return nil, errs.NewValidation("name", "role %q already exists", name)
	}

	role := &models.Role{
		Name:        name,
		Description: description,
		IsActive:    true,
		IsSystem:    false,
		CreatedByID: createdBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		permissions, err := resolvePermissions(tx, permissionIDs)
		if err != nil {
			return err
		}
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(permissions) > 0 {
			return tx.Model(role).Association("Permissions").Replace(permissions)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

// GetByID fetches a non-deleted role with its permission set.
func (s *RoleService) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.Scopes(models.Active).Preload("Permissions").First(&role, id).Error
	return &role, err
}

// GetWithPage lists roles. scope picks the soft-delete visibility.
func (s *RoleService) GetWithPage(keyword, scope string, page, pageSize int) ([]*models.Role, int64, error) {
	var roles []*models.Role
	var total int64

	query := s.db.Model(&models.Role{}).Scopes(models.Scope(scope))
	if keyword != "" {
		query = query.Where("name LIKE ?", fmt.Sprintf("%%%s%%", keyword))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Permissions").Order("name").Offset(offset).Limit(pageSize).Find(&roles).Error
	if err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

// Update changes name, description and active flag.
func (s *RoleService) Update(id uint, name, description string, isActive bool) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if err := s.ValidateName(name); err != nil {
		return nil, err
	}

	var role models.Role
	if err := s.db.Scopes(models.Active).First(&role, id).Error; err != nil {
		return nil, err
	}

	if !strings.EqualFold(role.Name, name) && s.nameTaken(name, id) {
		return nil, errs.NewValidation("name", "role %q already exists", name)
	}

	role.Name = name
	role.Description = description
	role.IsActive = isActive

	err := s.db.Save(&role).Error
	return &role, err
}

// ========== Permission set ==========

// SetPermissions replaces the role's whole permission set atomically.
func (s *RoleService) SetPermissions(roleID uint, permissionIDs []uint) (*models.Role, error) {
	var role models.Role
	if err := s.db.Scopes(models.Active).First(&role, roleID).Error; err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		permissions, err := resolvePermissions(tx, permissionIDs)
		if err != nil {
			return err
		}
		return tx.Model(&role).Association("Permissions").Replace(permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(roleID)
}

// GetPermissions returns the role's permission set.
func (s *RoleService) GetPermissions(roleID uint) ([]models.Permission, error) {
	role, err := s.GetByID(roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// ========== Lifecycle ==========

// Delete soft-deletes a role. System roles and roles still held by active
// principals are refused.
func (s *RoleService) Delete(id uint, deletedBy *uint) error {
	var role models.Role
	if err := s.db.Scopes(models.Active).First(&role, id).Error; err != nil {
		return err
	}

	if role.IsSystem {
		return errs.NewConflict("system role %q cannot be deleted", role.Name)
	}

	var count int64
	s.db.Model(&models.User{}).Scopes(models.Active).
		Where("role_id = ? AND is_active = ?", id, true).Count(&count)
	if count > 0 {
		return errs.NewConflict("role %q is assigned to %d active users", role.Name, count)
	}

	return s.db.Model(&models.Role{}).Where("id = ?", id).
		Updates(models.SoftDeleteValues(deletedBy)).Error
}

// Restore clears the logical delete on a role.
func (s *RoleService) Restore(id uint) (*models.Role, error) {
	var role models.Role
	if err := s.db.Scopes(models.OnlyDeleted).First(&role, id).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Role{}).Where("id = ?", id).
		Updates(models.RestoreValues()).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Clone creates a new role carrying the same permission set.
func (s *RoleService) Clone(id uint, newName string, createdBy *uint) (*models.Role, error) {
	newName = strings.TrimSpace(newName)
	if err := s.ValidateName(newName); err != nil {
		return nil, err
	}
	if s.nameTaken(newName, 0) {
		return nil, errs.NewValidation("name", "role %q already exists", newName)
	}

	source, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	clone := &models.Role{
		Name:        newName,
		Description: source.Description,
		IsActive:    true,
		IsSystem:    false,
		CreatedByID: createdBy,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(clone).Error; err != nil {
			return err
		}
		if len(source.Permissions) > 0 {
			return tx.Model(clone).Association("Permissions").Replace(source.Permissions)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(clone.ID)
}
