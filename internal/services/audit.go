package services

import (
	"reflect"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService writes and reads the append-only audit log. Writes never
// fail the calling operation: a missing actor or target, an invalid action
// or a storage error all degrade to a nil return and a warn-level log line.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService() *AuditService {
	return &AuditService{
		db: database.GetDB(),
	}
}

// NewAuditServiceWithDB creates the service on an explicit handle.
func NewAuditServiceWithDB(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditContext carries the optional request metadata of a log entry.
type AuditContext struct {
	Details     datatypes.JSONMap
	IP          string
	UserAgent   string
	CustomLabel string
}

// Target snapshots longer than this are cut off.
const auditLabelMaxLen = 200

// Record appends one log entry. Returns nil without writing when actor or
// target is absent, when the action is outside the vocabulary, or when a
// custom action carries no label.
func (s *AuditService) Record(actor *models.User, action string, target models.Auditable, ctx *AuditContext) *models.AuditLog {
	if actor == nil || isNilTarget(target) {
		return nil
	}
	if !models.IsValidAuditAction(action) {
		logger.GetLogger().Warnf("audit: unknown action %q dropped", action)
		return nil
	}
	if ctx == nil {
		ctx = &AuditContext{}
	}
	if action == models.AuditActionCustom && ctx.CustomLabel == "" {
		logger.GetLogger().Warn("audit: custom action without label dropped")
		return nil
	}

	targetType, targetID, label := target.AuditRef()
	if len(label) > auditLabelMaxLen {
		label = label[:auditLabelMaxLen]
	}

	entry := &models.AuditLog{
		ActorID:     actor.ID,
		Action:      action,
		CustomLabel: ctx.CustomLabel,
		TargetType:  targetType,
		TargetID:    targetID,
		TargetLabel: label,
		Details:     ctx.Details,
		IP:          ctx.IP,
		UserAgent:   ctx.UserAgent,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.GetLogger().Warnf("audit: failed to record %s on %s/%d: %v", action, targetType, targetID, err)
		return nil
	}

	return entry
}

// isNilTarget also catches a typed nil pointer behind the interface.
func isNilTarget(target models.Auditable) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// GetWithPage lists entries newest first, with optional filters.
func (s *AuditService) GetWithPage(actorID *uint, action, targetType string, page, pageSize int) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	query := s.db.Model(&models.AuditLog{})
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Actor").Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GetByID fetches a single entry.
func (s *AuditService) GetByID(id uint) (*models.AuditLog, error) {
	var entry models.AuditLog
	err := s.db.Preload("Actor").First(&entry, id).Error
	return &entry, err
}
