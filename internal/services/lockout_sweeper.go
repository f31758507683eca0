package services

import (
	"time"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// LockoutSweeper periodically clears lockout timestamps that have already
// expired. Purely cosmetic housekeeping: IsLocked derives from the
// timestamp either way, and the failure counter is left alone so that a
// post-lockout failure re-locks immediately.
type LockoutSweeper struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewLockoutSweeper(db *gorm.DB) *LockoutSweeper {
	return &LockoutSweeper{
		db:   db,
		cron: cron.New(),
	}
}

// Start schedules the sweep.
func (s *LockoutSweeper) Start() error {
	_, err := s.cron.AddFunc("@every 10m", s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.GetLogger().Info("Lockout sweeper started")
	return nil
}

// Stop halts the schedule.
func (s *LockoutSweeper) Stop() {
	s.cron.Stop()
	logger.GetLogger().Info("Lockout sweeper stopped")
}

func (s *LockoutSweeper) sweep() {
	result := s.db.Model(&models.User{}).
		Where("locked_until IS NOT NULL AND locked_until < ?", time.Now()).
		Update("locked_until", nil)
	if result.Error != nil {
		logger.GetLogger().Errorf("Lockout sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.GetLogger().Infof("Lockout sweep cleared %d expired lockouts", result.RowsAffected)
	}
}
