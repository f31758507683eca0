package models

import "time"

// Employee is one record of the external employee directory, exposed to the
// backend as a read-only foreign table. Rows are only ever consulted here:
// migration copies them into users, it never writes back.
type Employee struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	Code           uint       `gorm:"uniqueIndex;not null" json:"code"`
	FirstName      string     `gorm:"size:100" json:"first_name"`
	LastNameFather string     `gorm:"size:100" json:"last_name_father"`
	LastNameMother string     `gorm:"size:100" json:"last_name_mother"`
	Status         string     `gorm:"size:20" json:"status"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
}

func (Employee) TableName() string {
	return "empleados_fdw"
}

// Directory employment status codes.
const (
	EmployeeStatusActive   = "ACTIVO"
	EmployeeStatusInactive = "INACTIVO"
)

// IsEligible reports whether the record can be migrated into a principal.
func (e *Employee) IsEligible() bool {
	return e.Status == EmployeeStatusActive
}

// FullName joins the three name fields, skipping empty parts.
func (e *Employee) FullName() string {
	name := e.FirstName
	if e.LastNameFather != "" {
		name += " " + e.LastNameFather
	}
	if e.LastNameMother != "" {
		name += " " + e.LastNameMother
	}
	return name
}
