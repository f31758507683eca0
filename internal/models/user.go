package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a principal of the back office, identified by its COTEL code.
// Codes below ManualCodeBase belong to principals migrated from the employee
// directory; codes at or above it were created directly in this system.
// Codes are never reused, so uniqueness spans soft-deleted rows too.
type User struct {
	BaseModel
	Code uint `gorm:"uniqueIndex;not null" json:"code"`

	FirstName      string     `gorm:"size:100" json:"first_name"`
	LastNameFather string     `gorm:"size:100" json:"last_name_father"`
	LastNameMother string     `gorm:"size:100" json:"last_name_mother"`
	EmployeeStatus string     `gorm:"size:20" json:"employee_status"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
	EmployeeID     *uint      `gorm:"index" json:"employee_id,omitempty"` // directory back-reference, migrated only

	// Credential state
	PasswordHash          string     `gorm:"size:255;not null" json:"-"`
	PasswordChanged       bool       `gorm:"default:false" json:"password_changed"`
	PasswordResetRequired bool       `gorm:"default:false" json:"password_reset_required"`
	PasswordResetAt       *time.Time `json:"password_reset_at,omitempty"`
	PasswordResetByID     *uint      `json:"password_reset_by,omitempty"`

	// Security state
	FailedLoginAttempts int        `gorm:"default:0" json:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP         string     `gorm:"size:45" json:"last_login_ip,omitempty"`

	RoleID      *uint `gorm:"index" json:"role_id,omitempty"`
	IsActive    bool  `gorm:"default:true" json:"is_active"`
	IsSuperuser bool  `gorm:"default:false" json:"is_superuser"`
	CreatedByID *uint `json:"created_by,omitempty"`
	SoftDeleteFields

	Role      *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// ManualCodeBase is the first code of the manually-created range.
const ManualCodeBase = 9000

// IsManual reports whether the principal was created directly in this
// system rather than migrated from the directory.
func (u *User) IsManual() bool {
	return u.Code >= ManualCodeBase
}

// FullName joins the three name fields, skipping empty parts.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastNameFather != "" {
		name += " " + u.LastNameFather
	}
	if u.LastNameMother != "" {
		name += " " + u.LastNameMother
	}
	return name
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies a password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsLocked reports whether the account is currently locked out. Derived
// from the timestamp, never stored.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && u.LockedUntil.After(time.Now())
}

// HasPermission resolves a (resource, action) grant for this principal.
// Superusers always pass. The Role association must be preloaded with its
// permission set; a missing, inactive or deleted role grants nothing.
func (u *User) HasPermission(resource, action string) bool {
	if u.IsSuperuser {
		return true
	}
	if !u.IsActive || u.Deleted {
		return false
	}
	if u.RoleID == nil || u.Role == nil {
		return false
	}
	if !u.Role.IsActive || u.Role.Deleted {
		return false
	}
	return u.Role.HasPermission(resource, action)
}

// AuditRef implements the audit target reference.
func (u *User) AuditRef() (string, uint, string) {
	return "user", u.ID, fmt.Sprintf("%d - %s", u.Code, u.FullName())
}

// AuditRef implements the audit target reference.
func (r *Role) AuditRef() (string, uint, string) {
	return "role", r.ID, r.Name
}

// AuditRef implements the audit target reference.
func (p *Permission) AuditRef() (string, uint, string) {
	return "permission", p.ID, p.Resource + ":" + p.Action
}
