package services

import (
	"testing"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmployeeGetByCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmployeeServiceWithDB(db)

	seedEmployee(t, db, 1234, models.EmployeeStatusActive)

	emp, err := svc.GetByCode(1234)
	require.NoError(t, err)
	assert.Equal(t, "Juan Perez Mamani", emp.FullName())
	assert.True(t, emp.IsEligible())

	_, err = svc.GetByCode(9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEmployeeGetWithPageUnmigrated(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmployeeServiceWithDB(db)
	users := NewUserServiceWithDB(db)

	seedEmployee(t, db, 1000, models.EmployeeStatusActive)
	seedEmployee(t, db, 1001, models.EmployeeStatusActive)

	_, total, err := svc.GetWithPage("", true, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	migrated, err := users.MigrateFromDirectory(1000, nil, nil)
	require.NoError(t, err)

	list, total, err := svc.GetWithPage("", true, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1001, list[0].Code)

	// a deleted principal still counts as migrated
	require.NoError(t, users.Deactivate(migrated.ID, nil))
	_, total, err = svc.GetWithPage("", true, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
