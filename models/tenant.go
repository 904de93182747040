// edumanage/models/tenant.go

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription plans a school can be on.
const (
	PlanBasic      = "Basic"
	PlanStandard   = "Standard"
	PlanEnterprise = "Enterprise"
)

// Subscription statuses.
const (
	SubscriptionTrial     = "Trial"
	SubscriptionActive    = "Active"
	SubscriptionSuspended = "Suspended"
)

// Tenant is a single school's isolated data partition. Every financial
// entity carries a TenantID and queries never cross tenants.
type Tenant struct {
	gorm.Model
	Name    string `json:"name" gorm:"not null"`
	Code    string `json:"code" gorm:"unique;not null"`
	OwnerID *uint  `json:"ownerId" gorm:"index"`

	// Admission numbers are minted from AdmissionFormat by expanding
	// {SCHOOL_CODE}, {YEAR}, {COUNTER:04d} and {GRADE}. The counter is
	// bumped atomically before every allocation.
	AdmissionCounter int    `json:"admissionCounter" gorm:"not null;default:0"`
	AdmissionFormat  string `json:"admissionFormat" gorm:"not null;default:'{SCHOOL_CODE}/{YEAR}/{COUNTER:04d}'"`

	CurrentTerm         int    `json:"currentTerm" gorm:"not null;default:1"`
	CurrentAcademicYear string `json:"currentAcademicYear"`
	TermsPerYear        int    `json:"termsPerYear" gorm:"not null;default:3"`

	// AdmissionFee is charged once per student and feeds the tuition
	// revenue target.
	AdmissionFee decimal.Decimal `json:"admissionFee" gorm:"type:numeric(12,2);default:0"`

	SubscriptionPlan   string     `json:"subscriptionPlan" gorm:"not null;default:'Basic'"`
	SubscriptionStatus string     `json:"subscriptionStatus" gorm:"not null;default:'Trial'"`
	TrialEndDate       *time.Time `json:"trialEndDate"`

	Active *bool `json:"active" gorm:"default:true"`
}

// TenantPortalPassword is the shared per-role portal password of a school
// (one row per role: teacher, parent, driver, ...). Only the hash is stored.
type TenantPortalPassword struct {
	gorm.Model
	TenantID     uint   `json:"tenantId" gorm:"not null;uniqueIndex:idx_portal_password_role"`
	Role         string `json:"role" gorm:"not null;uniqueIndex:idx_portal_password_role"`
	PasswordHash string `json:"-" gorm:"not null"`
}
