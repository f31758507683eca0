package models

// Permission is one (resource, action) grant in the flat registry.
// The pair is unique among non-deleted rows; resources are normalized to
// lowercase before storage.
type Permission struct {
	BaseModel
	Resource    string `gorm:"size:50;not null;index" json:"resource"` // e.g. "usuarios", "materiales"
	Action      string `gorm:"size:20;not null" json:"action"`         // crear, leer, actualizar, eliminar
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	CreatedByID *uint  `json:"created_by,omitempty"`
	SoftDeleteFields

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Action verbs. Stored values keep the legacy Spanish vocabulary.
const (
	ActionCreate = "crear"
	ActionRead   = "leer"
	ActionUpdate = "actualizar"
	ActionDelete = "eliminar"
)

// Actions lists the four verbs in a stable order.
var Actions = []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// IsValidAction reports whether action is one of the four verbs.
func IsValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}
