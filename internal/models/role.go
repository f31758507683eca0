package models

import "time"

// Role is a named set of permissions. Permissions are shared between roles
// through the role_permissions join table, never owned exclusively.
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;not null;index" json:"name"` // unique case-insensitive among non-deleted
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"` // protected from deletion
	CreatedByID *uint  `json:"created_by,omitempty"`
	SoftDeleteFields

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	CreatedBy   *User        `gorm:"foreignKey:CreatedByID" json:"-"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission is the join table between roles and permissions.
type RolePermission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RoleID       uint      `gorm:"not null;index" json:"role_id"`
	PermissionID uint      `gorm:"not null;index" json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// HasPermission reports whether the role's loaded permission set contains an
// active, non-deleted (resource, action) match.
func (r *Role) HasPermission(resource, action string) bool {
	for _, p := range r.Permissions {
		if p.Resource == resource && p.Action == action && p.IsActive && !p.Deleted {
			return true
		}
	}
	return false
}
