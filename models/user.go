// edumanage/models/user.go

package models

import "gorm.io/gorm"

// User represents a platform login. A user may own a tenant (school admin),
// be linked to a tenant through a Profile, or be platform staff with no
// linkage at all.
type User struct {
	gorm.Model
	Login        string `json:"login" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	IsSuperAdmin bool   `json:"isSuperAdmin" gorm:"default:false"`
	IsStaff      bool   `json:"isStaff" gorm:"default:false"`

	Roles    []Role    `json:"roles" gorm:"many2many:user_roles;"`
	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:UserID"`
}

// Profile roles. The employee hierarchy of the legacy system collapses into
// a single tagged record keyed by Kind; role-specific attributes live in
// sibling tables linked by profile id.
const (
	ProfileTeacher = "teacher"
	ProfileStaff   = "staff"
	ProfileStudent = "student"
	ProfileDriver  = "driver"
)

// Profile links a user to one tenant in a given capacity.
type Profile struct {
	gorm.Model
	UserID    uint   `json:"userId" gorm:"not null;index"`
	TenantID  uint   `json:"tenantId" gorm:"not null;index"`
	Kind      string `json:"kind" gorm:"not null"`
	StudentID *uint  `json:"studentId"`
}

// Role defines a named permission bundle.
type Role struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"unique;not null"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions;"`
}

// Permission is a single named capability checked by the route middleware.
type Permission struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
}
