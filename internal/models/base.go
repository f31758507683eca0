package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel is embedded by every persisted entity.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SoftDeleteFields implement logical deletion: rows are flagged instead of
// removed, and default queries exclude flagged rows via the Active scope.
// Physical removal only happens through the explicit hard-delete paths.
type SoftDeleteFields struct {
	Deleted     bool       `json:"deleted" gorm:"default:false;index"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *uint      `json:"deleted_by,omitempty"`
}

// MarkDeleted flags the row as logically deleted.
func (f *SoftDeleteFields) MarkDeleted(byID *uint) {
	now := time.Now()
	f.Deleted = true
	f.DeletedAt = &now
	f.DeletedByID = byID
}

// ClearDeleted restores a logically deleted row.
func (f *SoftDeleteFields) ClearDeleted() {
	f.Deleted = false
	f.DeletedAt = nil
	f.DeletedByID = nil
}

// ========== Query scopes ==========

// Active keeps only rows that are not logically deleted. This is the
// default visibility for every read path.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}

// OnlyDeleted keeps only logically deleted rows.
func OnlyDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", true)
}

// Scope picks between the three visibility modes from a request flag.
// "deleted" returns only deleted rows, "all" everything, anything else
// the active default.
func Scope(mode string) func(db *gorm.DB) *gorm.DB {
	switch mode {
	case "deleted":
		return OnlyDeleted
	case "all":
		return func(db *gorm.DB) *gorm.DB { return db }
	default:
		return Active
	}
}

// SoftDeleteValues builds the column map for a bulk logical delete.
func SoftDeleteValues(byID *uint) map[string]interface{} {
	return map[string]interface{}{
		"deleted":       true,
		"deleted_at":    time.Now(),
		"deleted_by_id": byID,
	}
}

// RestoreValues builds the column map that clears the logical delete.
func RestoreValues() map[string]interface{} {
	return map[string]interface{}{
		"deleted":       false,
		"deleted_at":    nil,
		"deleted_by_id": nil,
	}
}
