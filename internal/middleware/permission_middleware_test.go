package middleware

import (
	"net/http"
	"testing"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveAction(t *testing.T) {
	cases := []struct {
		name      string
		method    string
		operation string
		action    string
		ok        bool
	}{
		{"get is read", http.MethodGet, "", models.ActionRead, true},
		{"head is read", http.MethodHead, "", models.ActionRead, true},
		{"options is read", http.MethodOptions, "", models.ActionRead, true},
		{"read wins over operation", http.MethodGet, "destroy", models.ActionRead, true},

		{"create operation", http.MethodPost, "create", models.ActionCreate, true},
		{"update operation", http.MethodPut, "update", models.ActionUpdate, true},
		{"partial update operation", http.MethodPatch, "partial_update", models.ActionUpdate, true},
		{"destroy operation", http.MethodDelete, "destroy", models.ActionDelete, true},

		{"reset_password maps to update", http.MethodPost, "reset_password", models.ActionUpdate, true},
		{"assign_role maps to update", http.MethodPost, "assign_role", models.ActionUpdate, true},
		{"set_permissions maps to update", http.MethodPut, "set_permissions", models.ActionUpdate, true},
		{"restore maps to update", http.MethodPost, "restore", models.ActionUpdate, true},
		{"clone maps to create", http.MethodPost, "clone", models.ActionCreate, true},
		{"migrate maps to create", http.MethodPost, "migrate", models.ActionCreate, true},
		{"stats maps to read", http.MethodPost, "stats", models.ActionRead, true},

		{"bare post falls back to create", http.MethodPost, "", models.ActionCreate, true},
		{"bare put falls back to update", http.MethodPut, "", models.ActionUpdate, true},
		{"bare patch falls back to update", http.MethodPatch, "", models.ActionUpdate, true},
		{"bare delete falls back to delete", http.MethodDelete, "", models.ActionDelete, true},
		{"unknown operation falls back to method", http.MethodPost, "frobnicate", models.ActionCreate, true},

		{"unmapped method", http.MethodTrace, "", "", false},
		{"connect with unknown operation", http.MethodConnect, "frobnicate", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, ok := ResolveAction(tc.method, tc.operation)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.action, action)
		})
	}
}

// gateUser builds an in-memory principal with one granted permission.
func gateUser(resource, action string) *models.User {
	roleID := uint(1)
	return &models.User{
		BaseModel: models.BaseModel{ID: 7},
		Code:      9001,
		IsActive:  true,
		RoleID:    &roleID,
		Role: &models.Role{
			BaseModel: models.BaseModel{ID: roleID},
			Name:      "Tecnico",
			IsActive:  true,
			Permissions: []models.Permission{
				{Resource: resource, Action: action, IsActive: true},
			},
		},
	}
}

func TestCheckPrecedence(t *testing.T) {
	t.Run("nil user denied", func(t *testing.T) {
		assert.False(t, Check(nil, "materiales", http.MethodGet, ""))
	})

	t.Run("superuser allowed before any other rule", func(t *testing.T) {
		root := &models.User{IsSuperuser: true}
		assert.True(t, Check(root, "materiales", http.MethodDelete, ""))
		// even with the method unresolvable
		assert.True(t, Check(root, "materiales", http.MethodTrace, ""))
		// and with no resource declared
		assert.True(t, Check(root, "", http.MethodGet, ""))
	})

	t.Run("inactive or deleted denied despite grants", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		user.IsActive = false
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))

		user = gateUser("materiales", models.ActionRead)
		user.MarkDeleted(nil)
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))
	})

	t.Run("empty resource denied", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		assert.False(t, Check(user, "", http.MethodGet, ""))
	})

	t.Run("unresolvable action denied", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		assert.False(t, Check(user, "materiales", http.MethodTrace, ""))
	})

	t.Run("grant resolution", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		assert.True(t, Check(user, "materiales", http.MethodGet, ""))
		assert.False(t, Check(user, "materiales", http.MethodDelete, "destroy"))
		assert.False(t, Check(user, "contratos", http.MethodGet, ""))
	})

	t.Run("operation drives the verb", func(t *testing.T) {
		user := gateUser("usuarios", models.ActionUpdate)
		assert.True(t, Check(user, "usuarios", http.MethodPost, "reset_password"))
		assert.False(t, Check(user, "usuarios", http.MethodPost, "migrate"))
	})

	t.Run("role state gates the grant", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		user.Role.IsActive = false
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))

		user = gateUser("materiales", models.ActionRead)
		user.Role.MarkDeleted(nil)
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))

		user = gateUser("materiales", models.ActionRead)
		user.Role = nil
		user.RoleID = nil
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))
	})

	t.Run("inactive permission grants nothing", func(t *testing.T) {
		user := gateUser("materiales", models.ActionRead)
		user.Role.Permissions[0].IsActive = false
		assert.False(t, Check(user, "materiales", http.MethodGet, ""))
	})
}
