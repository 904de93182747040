// edumanage/models/student.go

package models

import (
	"time"

	"gorm.io/gorm"
)

// Student belongs to exactly one tenant and optionally one grade. Creating a
// student allocates an admission number and materializes the three stream
// accounts.
type Student struct {
	gorm.Model
	TenantID uint  `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_student_admission"`
	GradeID  *uint `json:"gradeId" gorm:"index"`

	AdmissionNumber string `json:"admissionNumber" gorm:"not null;uniqueIndex:idx_student_admission"`

	FirstName    string     `json:"firstName" gorm:"not null"`
	LastName     string     `json:"lastName" gorm:"not null"`
	MiddleName   string     `json:"middleName"`
	Gender       string     `json:"gender"`
	BirthDate    *time.Time `json:"birthDate"`
	GuardianName string     `json:"guardianName"`
	GuardianPhone string    `json:"guardianPhone"`

	// CurrentTerm advances per student, independent of calendar time.
	CurrentTerm int   `json:"currentTerm" gorm:"not null;default:1"`
	Active      *bool `json:"active" gorm:"default:true"`

	Grade *Grade `json:"grade,omitempty" gorm:"foreignKey:GradeID"`
}

// FullName joins the name parts the way receipts and reports display them.
func (s *Student) FullName() string {
	if s.MiddleName != "" {
		return s.FirstName + " " + s.MiddleName + " " + s.LastName
	}
	return s.FirstName + " " + s.LastName
}
