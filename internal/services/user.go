package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/config"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"

	"gorm.io/gorm"
)

// Authentication sentinels. Handlers translate these to 401 responses
// without leaking which part of the credential failed.
var (
	ErrInvalidCredentials = errors.New("invalid code or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountDisabled    = errors.New("account disabled")
)

// UserService manages principals: code assignment, directory migration,
// credentials, lockout and role binding.
type UserService struct {
	db              *gorm.DB
	manualCodeBase  uint
	maxFailedLogins int
	lockoutWindow   time.Duration
}

func NewUserService() *UserService {
	return NewUserServiceWithDB(database.GetDB())
}

// NewUserServiceWithDB creates the service on an explicit handle.
func NewUserServiceWithDB(db *gorm.DB) *UserService {
	sec := config.GetConfig().Security
	return &UserService{
		db:              db,
		manualCodeBase:  uint(sec.ManualCodeBase),
		maxFailedLogins: sec.MaxFailedLogins,
		lockoutWindow:   time.Duration(sec.LockoutMinutes) * time.Minute,
	}
}

// UserStats summarizes the principal population.
type UserStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Locked   int64 `json:"locked"`
	Deleted  int64 `json:"deleted"`
	Manual   int64 `json:"manual"`
	Migrated int64 `json:"migrated"`
}

// ========== Code assignment ==========

// codeTaken checks the code against every principal row, deleted included,
// and against the employee directory. Codes are never reused.
func (s *UserService) codeTaken(tx *gorm.DB, code uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := tx.Model(&models.Employee{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateAvailableCode returns the next free code of the manual range.
// It scans upward from max(base, highest assigned manual code + 1), so two
// sequential calls without an intervening creation agree, and each creation
// pushes the next candidate strictly higher. Concurrent callers are backed
// by the unique index on code: the losing insert fails and is retried by
// the caller.
func (s *UserService) GenerateAvailableCode() (uint, error) {
	return s.generateAvailableCode(s.db)
}

func (s *UserService) generateAvailableCode(tx *gorm.DB) (uint, error) {
	var maxCode uint
	err := tx.Model(&models.User{}).
		Where("code >= ?", s.manualCodeBase).
		Select("COALESCE(MAX(code), 0)").
		Scan(&maxCode).Error
	if err != nil {
		return 0, err
	}

	candidate := s.manualCodeBase
	if maxCode >= s.manualCodeBase {
		candidate = maxCode + 1
	}

	for {
		taken, err := s.codeTaken(tx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
		candidate++
	}
}

// ========== Creation ==========

// requireActiveRole loads a role that must exist, be non-deleted and
// active, otherwise a validation error.
func requireActiveRole(tx *gorm.DB, roleID uint) (*models.Role, error) {
	var role models.Role
	err := tx.Scopes(models.Active).First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewValidation("role_id", "role %d not found", roleID)
	}
	if err != nil {
		return nil, err
	}
	if !role.IsActive {
		return nil, errs.NewValidation("role_id", "role %q is inactive", role.Name)
	}
	return &role, nil
}

// CreateManual registers a principal directly in this system. The code is
// auto-assigned from the manual range and doubles as the initial password,
// with a forced change on first login.
func (s *UserService) CreateManual(firstName, lastNameFather, lastNameMother string, roleID uint, createdBy *uint) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastNameFather = strings.TrimSpace(lastNameFather)
	lastNameMother = strings.TrimSpace(lastNameMother)
	if firstName == "" || lastNameFather == "" || lastNameMother == "" {
		return nil, errs.NewValidation("name", "manual users require first name and both last names")
	}

	if _, err := requireActiveRole(s.db, roleID); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := s.generateAvailableCode(tx)
		if err != nil {
			return err
		}

		rid := roleID
		user = &models.User{
			Code:                  code,
			FirstName:             firstName,
			LastNameFather:        lastNameFather,
			LastNameMother:        lastNameMother,
			RoleID:                &rid,
			IsActive:              true,
			PasswordChanged:       false,
			PasswordResetRequired: true,
			CreatedByID:           createdBy,
		}
		// legacy convention: initial password is the code itself,
		// gated by the forced first change
		if err := user.SetPassword(strconv.FormatUint(uint64(code), 10)); err != nil {
			return err
		}

		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(user.ID)
}

// MigrateFromDirectory copies a directory record into a principal, keeping
// code and identity verbatim. The eligibility and not-yet-migrated checks
// run again inside the insert transaction: two concurrent migrations of the
// same record must not both pass the request-phase validation and commit.
func (s *UserService) MigrateFromDirectory(employeeCode uint, roleID *uint, createdBy *uint) (*models.User, error) {
	var employee models.Employee
	if err := s.db.Where("code = ?", employeeCode).First(&employee).Error; err != nil {
		return nil, err
	}

	if !employee.IsEligible() {
		return nil, errs.NewConflict("employee %d is not active in the directory", employeeCode)
	}

	if roleID != nil {
		if _, err := requireActiveRole(s.db, *roleID); err != nil {
			return nil, err
		}
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("code = ?", employeeCode).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errs.NewConflict("employee %d is already migrated", employeeCode)
	}

	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// re-check inside the transaction, the request-phase validation
		// is not atomic with the insert
		var fresh models.Employee
		if err := tx.Where("code = ?", employeeCode).First(&fresh).Error; err != nil {
			return err
		}
		if !fresh.IsEligible() {
			return errs.NewConflict("employee %d is not active in the directory", employeeCode)
		}
		if err := tx.Model(&models.User{}).Where("code = ?", employeeCode).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.NewConflict("employee %d is already migrated", employeeCode)
		}

		user = &models.User{
			Code:                  fresh.Code,
			FirstName:             fresh.FirstName,
			LastNameFather:        fresh.LastNameFather,
			LastNameMother:        fresh.LastNameMother,
			EmployeeStatus:        fresh.Status,
			HireDate:              fresh.HireDate,
			EmployeeID:            &fresh.ID,
			RoleID:                roleID,
			IsActive:              true,
			PasswordChanged:       false,
			PasswordResetRequired: true,
			CreatedByID:           createdBy,
		}
		if err := user.SetPassword(strconv.FormatUint(uint64(fresh.Code), 10)); err != nil {
			return err
		}

		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(user.ID)
}

// ========== Queries ==========

// GetByID fetches a non-deleted principal with its role and permissions.
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Scopes(models.Active).Preload("Role.Permissions").First(&user, id).Error
	return &user, err
}

// GetByCode fetches a non-deleted principal by COTEL code.
func (s *UserService) GetByCode(code uint) (*models.User, error) {
	var user models.User
	err := s.db.Scopes(models.Active).Preload("Role.Permissions").Where("code = ?", code).First(&user).Error
	return &user, err
}

// GetWithFiltersAndPage lists principals. scope picks the soft-delete
// visibility; origin filters "manual" or "migrated".
func (s *UserService) GetWithFiltersAndPage(keyword, scope, origin string, roleID *uint, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.Model(&models.User{}).Scopes(models.Scope(scope))
	if keyword != "" {
		pattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where(
			"first_name LIKE ? OR last_name_father LIKE ? OR last_name_mother LIKE ? OR CAST(code AS TEXT) LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	switch origin {
	case "manual":
		query = query.Where("code >= ?", s.manualCodeBase)
	case "migrated":
		query = query.Where("code < ?", s.manualCodeBase)
	}
	if roleID != nil {
		query = query.Where("role_id = ?", *roleID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Role").Order("code").Offset(offset).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// GetStats summarizes the principal population.
func (s *UserService) GetStats() (*UserStats, error) {
	stats := &UserStats{}
	now := time.Now()

	s.db.Model(&models.User{}).Count(&stats.Total)
	s.db.Model(&models.User{}).Scopes(models.Active).Where("is_active = ?", true).Count(&stats.Active)
	s.db.Model(&models.User{}).Where("locked_until > ?", now).Count(&stats.Locked)
	s.db.Model(&models.User{}).Scopes(models.OnlyDeleted).Count(&stats.Deleted)
	s.db.Model(&models.User{}).Where("code >= ?", s.manualCodeBase).Count(&stats.Manual)
	s.db.Model(&models.User{}).Where("code < ?", s.manualCodeBase).Count(&stats.Migrated)

	return stats, nil
}

// Update changes the name fields of a principal.
func (s *UserService) Update(id uint, firstName, lastNameFather, lastNameMother string) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, id).Error; err != nil {
		return nil, err
	}

	firstName = strings.TrimSpace(firstName)
	lastNameFather = strings.TrimSpace(lastNameFather)
	lastNameMother = strings.TrimSpace(lastNameMother)
	if user.IsManual() && (firstName == "" || lastNameFather == "" || lastNameMother == "") {
		return nil, errs.NewValidation("name", "manual users require first name and both last names")
	}

	user.FirstName = firstName
	user.LastNameFather = lastNameFather
	user.LastNameMother = lastNameMother

	err := s.db.Save(&user).Error
	return &user, err
}

// ========== Role binding ==========

// AssignRole binds the principal to a role. The role must be active.
func (s *UserService) AssignRole(userID, roleID uint) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, userID).Error; err != nil {
		return nil, err
	}
	if _, err := requireActiveRole(s.db, roleID); err != nil {
		return nil, err
	}

	user.RoleID = &roleID
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return s.GetByID(userID)
}

// RevokeRole unbinds the principal from its role. Without a role only the
// superuser bypass grants anything.
func (s *UserService) RevokeRole(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, userID).Error; err != nil {
		return nil, err
	}

	user.RoleID = nil
	if err := s.db.Model(&user).Update("role_id", nil).Error; err != nil {
		return nil, err
	}
	return s.GetByID(userID)
}

// HasPermission resolves a grant for a principal by id.
func (s *UserService) HasPermission(userID uint, resource, action string) (bool, error) {
	var user models.User
	err := s.db.Preload("Role.Permissions").First(&user, userID).Error
	if err != nil {
		return false, err
	}
	return user.HasPermission(resource, action), nil
}

// ========== Credentials ==========

// ResetPassword sets the credential back to the stringified code and forces
// a change on the next login.
func (s *UserService) ResetPassword(id uint, performedBy *uint) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, id).Error; err != nil {
		return nil, err
	}

	if err := user.SetPassword(strconv.FormatUint(uint64(user.Code), 10)); err != nil {
		return nil, err
	}
	now := time.Now()
	user.PasswordChanged = false
	user.PasswordResetRequired = true
	user.PasswordResetAt = &now
	user.PasswordResetByID = performedBy

	err := s.db.Save(&user).Error
	return &user, err
}

// ChangePassword verifies the current credential and sets a new one,
// clearing the forced-change flag.
func (s *UserService) ChangePassword(id uint, oldPassword, newPassword string) (*models.User, error) {
	if len(newPassword) < 6 {
		return nil, errs.NewValidation("new_password", "must be at least 6 characters")
	}
	if len(newPassword) > 50 {
		return nil, errs.NewValidation("new_password", "must be at most 50 characters")
	}

	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, id).Error; err != nil {
		return nil, err
	}

	if !user.CheckPassword(oldPassword) {
		return nil, errs.NewValidation("old_password", "current password does not match")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return nil, err
	}
	user.PasswordChanged = true
	user.PasswordResetRequired = false

	err := s.db.Save(&user).Error
	return &user, err
}

// ========== Lockout ==========

// RecordFailedLogin bumps the failure counter. The lockout window opens on
// the threshold failure and is not extended by further failures while it
// runs; only a successful login resets the counter.
func (s *UserService) RecordFailedLogin(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= s.maxFailedLogins && !user.IsLocked() {
		until := time.Now().Add(s.lockoutWindow)
		user.LockedUntil = &until
	}

	err := s.db.Save(&user).Error
	return &user, err
}

// ResetFailedLogins clears the counter and the lockout. Called on every
// successful authentication.
func (s *UserService) ResetFailedLogins(id uint) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error
}

// Authenticate runs the login path: lockout gate, credential check, counter
// reset and last-login stamp.
func (s *UserService) Authenticate(code uint, password, ip string) (*models.User, error) {
	user, err := s.GetByCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if !user.CheckPassword(password) {
		if _, err := s.RecordFailedLogin(user.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.ResetFailedLogins(user.ID); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": ip,
	}).Error; err != nil {
		return nil, err
	}

	return s.GetByID(user.ID)
}

// ========== Lifecycle ==========

// Deactivate soft-deletes a principal. Superusers and principals who
// created other still-active principals are refused.
func (s *UserService) Deactivate(id uint, deletedBy *uint) error {
	var user models.User
	if err := s.db.Scopes(models.Active).First(&user, id).Error; err != nil {
		return err
	}

	if user.IsSuperuser {
		return errs.NewConflict("superuser %d cannot be deactivated", user.Code)
	}

	var count int64
	s.db.Model(&models.User{}).Scopes(models.Active).
		Where("created_by_id = ? AND is_active = ?", id, true).Count(&count)
	if count > 0 {
		return errs.NewConflict("user %d created %d still-active users", user.Code, count)
	}

	values := models.SoftDeleteValues(deletedBy)
	values["is_active"] = false
	return s.db.Model(&models.User{}).Where("id = ?", id).Updates(values).Error
}

// Restore reactivates a soft-deleted principal.
func (s *UserService) Restore(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(models.OnlyDeleted).First(&user, id).Error; err != nil {
		return nil, err
	}

	values := models.RestoreValues()
	values["is_active"] = true
	if err := s.db.Model(&models.User{}).Where("id = ?", id).Updates(values).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}
