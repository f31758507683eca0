package services

import (
	"testing"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	errs "github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRoleCreateWithPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	read := seedPermission(t, db, "materiales", models.ActionRead)
	update := seedPermission(t, db, "materiales", models.ActionUpdate)

	role, err := svc.Create("Tecnico de Campo", "field staff", []uint{read.ID, update.ID}, nil)
	require.NoError(t, err)
	assert.True(t, role.IsActive)
	assert.False(t, role.IsSystem)

	got, err := svc.GetByID(role.ID)
	require.NoError(t, err)
	assert.Len(t, got.Permissions, 2)
}

func TestRoleCreateNameValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	_, err := svc.Create("X", "", nil, nil)
	assert.True(t, errs.IsValidation(err), "single-character name")

	_, err = svc.Create("Supervisor", "", nil, nil)
	require.NoError(t, err)

	// uniqueness is case-insensitive among non-deleted roles
	_, err = svc.Create("SUPERVISOR", "", nil, nil)
	assert.True(t, errs.IsValidation(err))
}

func TestRoleCreateUnknownPermissionRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	read := seedPermission(t, db, "contratos", models.ActionRead)

	_, err := svc.Create("Contratos", "", []uint{read.ID, 9999}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), "9999")

	// nothing committed
	var count int64
	db.Model(&models.Role{}).Count(&count)
	assert.Zero(t, count)
}

func TestRoleSetPermissionsReplacesAtomically(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	read := seedPermission(t, db, "planes", models.ActionRead)
	create := seedPermission(t, db, "planes", models.ActionCreate)
	role := seedRole(t, db, "Planificador", read)

	// unresolved id leaves the current set untouched
	_, err := svc.SetPermissions(role.ID, []uint{create.ID, 4242})
	assert.True(t, errs.IsValidation(err))
	perms, err := svc.GetPermissions(role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, read.ID, perms[0].ID)

	// full replace, not a merge
	updated, err := svc.SetPermissions(role.ID, []uint{create.ID})
	require.NoError(t, err)
	require.Len(t, updated.Permissions, 1)
	assert.Equal(t, create.ID, updated.Permissions[0].ID)

	// empty set clears everything
	updated, err = svc.SetPermissions(role.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Permissions)
}

func TestRoleUpdateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	seedRole(t, db, "Supervisor")
	role := seedRole(t, db, "Operador")

	_, err := svc.Update(role.ID, "supervisor", "", true)
	assert.True(t, errs.IsValidation(err))

	// renaming to itself with different casing is allowed
	updated, err := svc.Update(role.ID, "OPERADOR", "night shift", true)
	require.NoError(t, err)
	assert.Equal(t, "OPERADOR", updated.Name)
	assert.Equal(t, "night shift", updated.Description)
}

func TestRoleDeleteProtections(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	system := &models.Role{Name: "Administrador", IsActive: true, IsSystem: true}
	require.NoError(t, db.Create(system).Error)
	err := svc.Delete(system.ID, nil)
	assert.True(t, errs.IsConflict(err), "system roles are permanent")

	role := seedRole(t, db, "Cajero")
	user := &models.User{Code: 1010, FirstName: "Ana", IsActive: true, RoleID: &role.ID, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	err = svc.Delete(role.ID, nil)
	assert.True(t, errs.IsConflict(err), "role held by an active user")

	// deactivating the holder releases the role
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	assert.NoError(t, svc.Delete(role.ID, nil))
	_, err = svc.GetByID(role.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRoleRestore(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	p := seedPermission(t, db, "auditoria", models.ActionRead)
	role := seedRole(t, db, "Auditor", p)
	require.NoError(t, svc.Delete(role.ID, nil))

	restored, err := svc.Restore(role.ID)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Len(t, restored.Permissions, 1, "permission set survives the delete/restore cycle")
}

func TestRoleClone(t *testing.T) {
	db := newTestDB(t)
	svc := NewRoleServiceWithDB(db)

	read := seedPermission(t, db, "usuarios", models.ActionRead)
	update := seedPermission(t, db, "usuarios", models.ActionUpdate)
	source := seedRole(t, db, "Mesa de Ayuda", read, update)

	clone, err := svc.Clone(source.ID, "Mesa de Ayuda Nocturna", nil)
	require.NoError(t, err)
	assert.NotEqual(t, source.ID, clone.ID)
	assert.False(t, clone.IsSystem)
	assert.Len(t, clone.Permissions, 2)

	// clones share permissions, not identity: mutating one set leaves the other
	_, err = svc.SetPermissions(clone.ID, []uint{read.ID})
	require.NoError(t, err)
	perms, err := svc.GetPermissions(source.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	_, err = svc.Clone(source.ID, "Mesa de Ayuda", nil)
	assert.True(t, errs.IsValidation(err), "clone name must be free")
}
