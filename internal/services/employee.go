package services

import (
	"fmt"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/database"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/internal/models"

	"gorm.io/gorm"
)

// EmployeeService reads the external employee directory. The table is a
// foreign view maintained elsewhere; this service never writes to it.
type EmployeeService struct {
	db *gorm.DB
}

func NewEmployeeService() *EmployeeService {
	return &EmployeeService{
		db: database.GetDB(),
	}
}

// NewEmployeeServiceWithDB creates the service on an explicit handle.
func NewEmployeeServiceWithDB(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

// GetByCode fetches a directory record.
func (s *EmployeeService) GetByCode(code uint) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.Where("code = ?", code).First(&employee).Error
	return &employee, err
}

// GetWithPage lists directory records. With onlyUnmigrated set, records
// whose code already belongs to a principal (deleted ones included) are
// filtered out.
func (s *EmployeeService) GetWithPage(keyword string, onlyUnmigrated bool, page, pageSize int) ([]*models.Employee, int64, error) {
	var employees []*models.Employee
	var total int64

	query := s.db.Model(&models.Employee{})
	if keyword != "" {
		pattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where(
			"first_name LIKE ? OR last_name_father LIKE ? OR last_name_mother LIKE ? OR CAST(code AS TEXT) LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if onlyUnmigrated {
		query = query.Where("code NOT IN (?)", s.db.Model(&models.User{}).Select("code"))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("code").Offset(offset).Limit(pageSize).Find(&employees).Error
	if err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}
