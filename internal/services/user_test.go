package services

import (
	"strconv"
	"testing"
	"time"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ========== Code assignment ==========

func TestGenerateAvailableCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)

	code, err := svc.GenerateAvailableCode()
	require.NoError(t, err)
	assert.EqualValues(t, models.ManualCodeBase, code, "empty table starts the manual range")

	// stable without an intervening creation
	again, err := svc.GenerateAvailableCode()
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestGenerateAvailableCodeSkipsTakenCodes(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)

	// a deleted holder still blocks its code
	deleted := &models.User{Code: 9000, PasswordHash: "x"}
	deleted.MarkDeleted(nil)
	require.NoError(t, db.Create(deleted).Error)
	// so does a directory record sitting inside the manual range
	seedEmployee(t, db, 9001, models.EmployeeStatusActive)

	code, err := svc.GenerateAvailableCode()
	require.NoError(t, err)
	assert.EqualValues(t, 9002, code)
}

func TestGenerateAvailableCodeStrictlyIncreases(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	first, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	second, err := svc.CreateManual("Jose", "Flores", "Choque", role.ID, nil)
	require.NoError(t, err)
	assert.Greater(t, second.Code, first.Code)
}

// ========== Creation ==========

func TestCreateManual(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, models.ManualCodeBase, user.Code)
	assert.True(t, user.IsManual())
	assert.True(t, user.IsActive)
	assert.False(t, user.PasswordChanged)
	assert.True(t, user.PasswordResetRequired)
	// initial password is the code
	assert.True(t, user.CheckPassword(strconv.FormatUint(uint64(user.Code), 10)))

	_, err = svc.CreateManual("Solo", "Nombre", "  ", role.ID, nil)
	assert.True(t, errs.IsValidation(err), "all three name parts are required")

	_, err = svc.CreateManual("Maria", "Quispe", "Condori", 777, nil)
	assert.True(t, errs.IsValidation(err), "role must exist")
}

func TestCreateManualRejectsInactiveRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)

	role := &models.Role{Name: "Suspendido", IsActive: false}
	require.NoError(t, db.Create(role).Error)

	_, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	assert.True(t, errs.IsValidation(err))
}

func TestMigrateFromDirectory(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	emp := seedEmployee(t, db, 1234, models.EmployeeStatusActive)

	user, err := svc.MigrateFromDirectory(1234, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, user.Code)
	assert.False(t, user.IsManual())
	assert.Equal(t, emp.FirstName, user.FirstName)
	assert.Equal(t, models.EmployeeStatusActive, user.EmployeeStatus)
	require.NotNil(t, user.EmployeeID)
	assert.Equal(t, emp.ID, *user.EmployeeID)
	assert.True(t, user.PasswordResetRequired)
	assert.True(t, user.CheckPassword("1234"))

	_, err = svc.MigrateFromDirectory(1234, nil, nil)
	assert.True(t, errs.IsConflict(err), "already migrated")
}

func TestMigrateFromDirectoryIneligible(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	seedEmployee(t, db, 2000, models.EmployeeStatusInactive)

	_, err := svc.MigrateFromDirectory(2000, nil, nil)
	assert.True(t, errs.IsConflict(err))

	_, err = svc.MigrateFromDirectory(3000, nil, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "unknown directory code")
}

// ========== Role binding ==========

func TestAssignAndRevokeRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador", seedPermission(t, db, "materiales", models.ActionRead))
	other := seedRole(t, db, "Supervisor")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)

	user, err = svc.AssignRole(user.ID, other.ID)
	require.NoError(t, err)
	require.NotNil(t, user.RoleID)
	assert.Equal(t, other.ID, *user.RoleID)

	user, err = svc.RevokeRole(user.ID)
	require.NoError(t, err)
	assert.Nil(t, user.RoleID)

	ok, err := svc.HasPermission(user.ID, "materiales", models.ActionRead)
	require.NoError(t, err)
	assert.False(t, ok, "no role grants nothing")
}

func TestHasPermission(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)

	read := seedPermission(t, db, "materiales", models.ActionRead)
	role := seedRole(t, db, "Tecnico", read)

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)

	ok, err := svc.HasPermission(user.ID, "materiales", models.ActionRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = svc.HasPermission(user.ID, "materiales", models.ActionDelete)
	assert.False(t, ok, "action not in the set")

	// an inactive permission stops granting even while assigned
	require.NoError(t, db.Model(read).Update("is_active", false).Error)
	ok, _ = svc.HasPermission(user.ID, "materiales", models.ActionRead)
	assert.False(t, ok)
}

func TestHasPermissionSuperuserBypass(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)

	root := &models.User{Code: 9000, FirstName: "Root", IsActive: true, IsSuperuser: true, PasswordHash: "x"}
	require.NoError(t, db.Create(root).Error)

	ok, err := svc.HasPermission(root.ID, "contratos", models.ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok, "superuser needs no role")
}

// ========== Credentials ==========

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	initial := strconv.FormatUint(uint64(user.Code), 10)

	_, err = svc.ChangePassword(user.ID, initial, "corto")
	assert.True(t, errs.IsValidation(err), "below minimum length")

	_, err = svc.ChangePassword(user.ID, "wrong", "nuevaclave")
	assert.True(t, errs.IsValidation(err), "current password must match")

	changed, err := svc.ChangePassword(user.ID, initial, "nuevaclave")
	require.NoError(t, err)
	assert.True(t, changed.PasswordChanged)
	assert.False(t, changed.PasswordResetRequired)
	assert.True(t, changed.CheckPassword("nuevaclave"))
}

func TestResetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	admin := &models.User{Code: 9999, FirstName: "Admin", IsActive: true, IsSuperuser: true, PasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	_, err = svc.ChangePassword(user.ID, strconv.FormatUint(uint64(user.Code), 10), "nuevaclave")
	require.NoError(t, err)

	reset, err := svc.ResetPassword(user.ID, &admin.ID)
	require.NoError(t, err)
	assert.True(t, reset.CheckPassword(strconv.FormatUint(uint64(user.Code), 10)))
	assert.True(t, reset.PasswordResetRequired)
	assert.False(t, reset.PasswordChanged)
	require.NotNil(t, reset.PasswordResetByID)
	assert.Equal(t, admin.ID, *reset.PasswordResetByID)
	assert.NotNil(t, reset.PasswordResetAt)
}

// ========== Lockout ==========

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		u, err := svc.RecordFailedLogin(user.ID)
		require.NoError(t, err)
		assert.False(t, u.IsLocked(), "attempt %d stays below the threshold", i+1)
	}

	before := time.Now()
	locked, err := svc.RecordFailedLogin(user.ID)
	require.NoError(t, err)
	require.True(t, locked.IsLocked())
	require.NotNil(t, locked.LockedUntil)
	assert.WithinDuration(t, before.Add(30*time.Minute), *locked.LockedUntil, 5*time.Second)

	// further failures do not push the window out
	still, err := svc.RecordFailedLogin(user.ID)
	require.NoError(t, err)
	assert.Equal(t, locked.LockedUntil.Unix(), still.LockedUntil.Unix())
	assert.Equal(t, 6, still.FailedLoginAttempts)
}

func TestResetFailedLogins(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = svc.RecordFailedLogin(user.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.ResetFailedLogins(user.ID))

	fresh, err := svc.GetByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.FailedLoginAttempts)
	assert.Nil(t, fresh.LockedUntil)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	password := strconv.FormatUint(uint64(user.Code), 10)

	_, err = svc.Authenticate(1, password, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown code")

	_, err = svc.Authenticate(user.Code, "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := svc.Authenticate(user.Code, password, "10.0.0.1")
	require.NoError(t, err)
	assert.Zero(t, logged.FailedLoginAttempts, "success resets the counter")
	assert.NotNil(t, logged.LastLoginAt)
	assert.Equal(t, "10.0.0.1", logged.LastLoginIP)
}

func TestAuthenticateGates(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	password := strconv.FormatUint(uint64(user.Code), 10)

	// lockout gate fires before the credential check
	until := time.Now().Add(10 * time.Minute)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("locked_until", until).Error)
	_, err = svc.Authenticate(user.Code, password, "")
	assert.ErrorIs(t, err, ErrAccountLocked)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"locked_until": nil,
		"is_active":    false,
	}).Error)
	_, err = svc.Authenticate(user.Code, password, "")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

// ========== Lifecycle ==========

func TestDeactivate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	root := &models.User{Code: 9999, FirstName: "Root", IsActive: true, IsSuperuser: true, PasswordHash: "x"}
	require.NoError(t, db.Create(root).Error)
	err := svc.Deactivate(root.ID, nil)
	assert.True(t, errs.IsConflict(err), "superusers stay")

	creator, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	created, err := svc.CreateManual("Jose", "Flores", "Choque", role.ID, &creator.ID)
	require.NoError(t, err)

	err = svc.Deactivate(creator.ID, nil)
	assert.True(t, errs.IsConflict(err), "creator of a still-active user stays")

	require.NoError(t, svc.Deactivate(created.ID, &root.ID))
	_, err = svc.GetByID(created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// with the created user gone the creator can go too
	require.NoError(t, svc.Deactivate(creator.ID, &root.ID))
}

func TestDeactivateAndRestore(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	user, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(user.ID, nil))

	restored, err := svc.Restore(user.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.True(t, restored.IsActive)
	assert.Equal(t, user.Code, restored.Code, "code survives the cycle")
}

// ========== Listing ==========

func TestGetWithFiltersAndPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	seedEmployee(t, db, 1500, models.EmployeeStatusActive)
	migrated, err := svc.MigrateFromDirectory(1500, &role.ID, nil)
	require.NoError(t, err)
	manual, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)

	users, total, err := svc.GetWithFiltersAndPage("", "", "manual", nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, manual.ID, users[0].ID)

	_, total, err = svc.GetWithFiltersAndPage("", "", "migrated", nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// keyword matches the code as text
	users, _, err = svc.GetWithFiltersAndPage("150", "", "", nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, migrated.ID, users[0].ID)

	require.NoError(t, svc.Deactivate(manual.ID, nil))
	_, total, err = svc.GetWithFiltersAndPage("", "", "", nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "deleted principals leave the default view")
	_, total, err = svc.GetWithFiltersAndPage("", "all", "", nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserServiceWithDB(db)
	role := seedRole(t, db, "Operador")

	seedEmployee(t, db, 1500, models.EmployeeStatusActive)
	_, err := svc.MigrateFromDirectory(1500, &role.ID, nil)
	require.NoError(t, err)
	manual, err := svc.CreateManual("Maria", "Quispe", "Condori", role.ID, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(manual.ID, nil))

	stats, err := svc.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Active)
	assert.EqualValues(t, 1, stats.Deleted)
	assert.EqualValues(t, 1, stats.Manual)
	assert.EqualValues(t, 1, stats.Migrated)
}
