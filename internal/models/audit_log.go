package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one append-only record of a state-changing action. Entries
// keep a denormalized snapshot of the target (type + id + label) so history
// stays readable after the target is mutated or deleted. There is no update
// or delete path for this table anywhere in the codebase.
type AuditLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ActorID     uint              `gorm:"not null;index" json:"actor_id"`
	Action      string            `gorm:"size:30;not null;index" json:"action"`
	CustomLabel string            `gorm:"size:100" json:"custom_label,omitempty"` // required when Action == AuditActionCustom
	TargetType  string            `gorm:"size:50;not null;index" json:"target_type"`
	TargetID    uint              `gorm:"not null" json:"target_id"`
	TargetLabel string            `gorm:"size:200" json:"target_label"`
	Details     datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	IP          string            `gorm:"size:45" json:"ip,omitempty"`
	UserAgent   string            `gorm:"size:255" json:"user_agent,omitempty"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action vocabulary.
const (
	AuditActionCreate         = "create"
	AuditActionUpdate         = "update"
	AuditActionDelete         = "delete"
	AuditActionRestore        = "restore"
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionPasswordReset  = "password_reset"
	AuditActionPasswordChange = "password_change"
	AuditActionMigrateUser    = "migrate_user"
	AuditActionActivateUser   = "activate_user"
	AuditActionDeactivateUser = "deactivate_user"
	AuditActionAssignRole     = "assign_role"
	AuditActionRevokeRole     = "revoke_role"
	AuditActionApprove        = "approve"
	AuditActionReject         = "reject"
	AuditActionTransfer       = "transfer"
	AuditActionCustom         = "custom"
)

// IsValidAuditAction reports whether action belongs to the closed vocabulary.
func IsValidAuditAction(action string) bool {
	switch action {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionRestore,
		AuditActionLogin, AuditActionLogout, AuditActionPasswordReset, AuditActionPasswordChange,
		AuditActionMigrateUser, AuditActionActivateUser, AuditActionDeactivateUser,
		AuditActionAssignRole, AuditActionRevokeRole, AuditActionApprove, AuditActionReject,
		AuditActionTransfer, AuditActionCustom:
		return true
	default:
		return false
	}
}

// Auditable is anything that can be referenced by a log entry: a type tag,
// a primary key and a short human-readable label.
type Auditable interface {
	AuditRef() (targetType string, targetID uint, label string)
}
