package services

import (
	"strings"
	"testing"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newAuditFixture(t *testing.T) (*AuditService, *models.User, *models.Permission) {
	t.Helper()
	db := newTestDB(t)
	actor := &models.User{Code: 9000, FirstName: "Admin", IsActive: true, PasswordHash: "x"}
	require.NoError(t, db.Create(actor).Error)
	target := seedPermission(t, db, "materiales", models.ActionRead)
	return NewAuditServiceWithDB(db), actor, target
}

func TestAuditRecord(t *testing.T) {
	svc, actor, target := newAuditFixture(t)

	entry := svc.Record(actor, models.AuditActionCreate, target, &AuditContext{
		Details:   datatypes.JSONMap{"description": "read materials"},
		IP:        "10.0.0.1",
		UserAgent: "curl/8.0",
	})
	require.NotNil(t, entry)
	assert.Equal(t, actor.ID, entry.ActorID)
	assert.Equal(t, "permission", entry.TargetType)
	assert.Equal(t, target.ID, entry.TargetID)
	assert.Equal(t, "materiales:leer", entry.TargetLabel)
	assert.Equal(t, "10.0.0.1", entry.IP)

	got, err := svc.GetByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "read materials", got.Details["description"])
}

func TestAuditRecordDegradesToNoOp(t *testing.T) {
	svc, actor, target := newAuditFixture(t)

	assert.Nil(t, svc.Record(nil, models.AuditActionCreate, target, nil), "missing actor")

	var gone *models.Permission
	assert.Nil(t, svc.Record(actor, models.AuditActionCreate, gone, nil), "typed nil target")
	assert.Nil(t, svc.Record(actor, models.AuditActionCreate, nil, nil), "untyped nil target")

	assert.Nil(t, svc.Record(actor, "borrar", target, nil), "action outside the vocabulary")

	assert.Nil(t, svc.Record(actor, models.AuditActionCustom, target, nil), "custom action without label")
	assert.NotNil(t, svc.Record(actor, models.AuditActionCustom, target, &AuditContext{CustomLabel: "bulk import"}))

	// none of the dropped attempts left a row behind
	_, total, err := svc.GetWithPage(nil, "", "", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAuditRecordTruncatesLabel(t *testing.T) {
	svc, actor, _ := newAuditFixture(t)

	long := &models.User{
		BaseModel: models.BaseModel{ID: 42},
		Code:      9001,
		FirstName: strings.Repeat("a", 300),
	}
	entry := svc.Record(actor, models.AuditActionUpdate, long, nil)
	require.NotNil(t, entry)
	assert.Len(t, entry.TargetLabel, 200)
}

func TestAuditListingNewestFirstWithFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditServiceWithDB(db)

	actor := &models.User{Code: 9000, FirstName: "Admin", IsActive: true, PasswordHash: "x"}
	require.NoError(t, db.Create(actor).Error)
	other := &models.User{Code: 9001, FirstName: "Otro", IsActive: true, PasswordHash: "x"}
	require.NoError(t, db.Create(other).Error)

	p := seedPermission(t, db, "planes", models.ActionRead)
	role := seedRole(t, db, "Planificador", p)

	first := svc.Record(actor, models.AuditActionCreate, p, nil)
	require.NotNil(t, first)
	second := svc.Record(actor, models.AuditActionUpdate, role, nil)
	require.NotNil(t, second)
	third := svc.Record(other, models.AuditActionDelete, role, nil)
	require.NotNil(t, third)

	entries, total, err := svc.GetWithPage(nil, "", "", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 3)
	assert.True(t, !entries[0].CreatedAt.Before(entries[1].CreatedAt))
	assert.True(t, !entries[1].CreatedAt.Before(entries[2].CreatedAt))

	entries, total, err = svc.GetWithPage(&actor.ID, "", "", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, e := range entries {
		assert.Equal(t, actor.ID, e.ActorID)
		require.NotNil(t, e.Actor)
		assert.Equal(t, actor.Code, e.Actor.Code)
	}

	_, total, err = svc.GetWithPage(nil, models.AuditActionDelete, "", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = svc.GetWithPage(nil, "", "role", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
