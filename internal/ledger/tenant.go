// edumanage/internal/ledger/tenant.go
package ledger

import (
	"errors"
	"fmt"
	"time"

	"edumanage/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Identity is the resolved caller of a ledger operation, as established by
// the auth middleware. UserID == 0 means unauthenticated.
type Identity struct {
	UserID       uint
	IsSuperAdmin bool
	IsStaff      bool
}

// ResolveTenant scopes a ledger call to exactly one tenant.
//
// Resolution order: an authorized explicit hint wins; then the tenant the
// caller owns; then the tenant of any linked profile; staff and super-admins
// without linkage fall back to the first tenant, creating a default one only
// when none exists at all.
func ResolveTenant(db *gorm.DB, caller Identity, hintID *uint) (*models.Tenant, error) {
	if caller.UserID == 0 {
		return nil, ErrUnauthorized
	}

	if hintID != nil {
		tenant, err := resolveHint(db, caller, *hintID)
		if err == nil {
			return tenant, nil
		}
		// Unauthorized or missing hints fall through to the chain below.
	}

	var owned models.Tenant
	err := db.Where("owner_id = ?", caller.UserID).First(&owned).Error
	if err == nil {
		return &owned, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var profile models.Profile
	err = db.Where("user_id = ?", caller.UserID).Order("id asc").First(&profile).Error
	if err == nil {
		var tenant models.Tenant
		if err := db.First(&tenant, profile.TenantID).Error; err != nil {
			return nil, err
		}
		return &tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if caller.IsStaff || caller.IsSuperAdmin {
		var first models.Tenant
		err := db.Order("id asc").First(&first).Error
		if err == nil {
			return &first, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return createDefaultTenant(db)
	}

	return nil, ErrNoTenant
}

func resolveHint(db *gorm.DB, caller Identity, hintID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := db.First(&tenant, hintID).Error; err != nil {
		return nil, err
	}

	if caller.IsSuperAdmin {
		return &tenant, nil
	}
	if tenant.OwnerID != nil && *tenant.OwnerID == caller.UserID {
		return &tenant, nil
	}

	var memberships int64
	if err := db.Model(&models.Profile{}).
		Where("user_id = ? AND tenant_id = ?", caller.UserID, hintID).
		Count(&memberships).Error; err != nil {
		return nil, err
	}
	if memberships > 0 {
		return &tenant, nil
	}

	return nil, ErrUnauthorized
}

func createDefaultTenant(db *gorm.DB) (*models.Tenant, error) {
	trialEnd := time.Now().AddDate(0, 0, 30)
	tenant := models.Tenant{
		Name:                "Default School",
		Code:                "DEFAULT",
		CurrentAcademicYear: defaultAcademicYear(time.Now()),
		TrialEndDate:        &trialEnd,
	}
	if err := db.Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SignupInput carries the fields a new school registers with.
type SignupInput struct {
	Name         string
	Code         string
	OwnerID      uint
	AcademicYear string
}

// SignupTenant creates a school with a 30-day trial window.
func SignupTenant(db *gorm.DB, input SignupInput) (*models.Tenant, error) {
	year := input.AcademicYear
	if year == "" {
		year = defaultAcademicYear(time.Now())
	}
	trialEnd := time.Now().AddDate(0, 0, 30)
	owner := input.OwnerID
	tenant := models.Tenant{
		Name:                input.Name,
		Code:                input.Code,
		OwnerID:             &owner,
		CurrentAcademicYear: year,
		TrialEndDate:        &trialEnd,
	}
	if err := db.Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SuspendTenant and ActivateTenant flip the subscription status. Suspension
// keeps all financial data intact.
func SuspendTenant(db *gorm.DB, tenantID uint) error {
	return setSubscriptionStatus(db, tenantID, models.SubscriptionSuspended)
}

func ActivateTenant(db *gorm.DB, tenantID uint) error {
	return setSubscriptionStatus(db, tenantID, models.SubscriptionActive)
}

func setSubscriptionStatus(db *gorm.DB, tenantID uint, status string) error {
	result := db.Model(&models.Tenant{}).Where("id = ?", tenantID).
		Update("subscription_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCurrentPeriod updates the tenant's running term and academic year.
func SetCurrentPeriod(db *gorm.DB, tenantID uint, term int, academicYear string) error {
	if term < 1 {
		return ErrTermInvalid
	}
	var tenant models.Tenant
	if err := db.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if term > tenant.TermsPerYear {
		return ErrTermInvalid
	}
	updates := map[string]interface{}{"current_term": term}
	if academicYear != "" {
		updates["current_academic_year"] = academicYear
	}
	return db.Model(&tenant).Updates(updates).Error
}

// SetPortalPassword stores the shared portal password for one role of a
// tenant, replacing any previous one.
func SetPortalPassword(db *gorm.DB, tenantID uint, role, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	var existing models.TenantPortalPassword
	err = db.Where("tenant_id = ? AND role = ?", tenantID, role).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.TenantPortalPassword{
			TenantID:     tenantID,
			Role:         role,
			PasswordHash: string(hash),
		}).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&existing).Update("password_hash", string(hash)).Error
}

// CheckPortalPassword verifies a shared portal password for one role.
func CheckPortalPassword(db *gorm.DB, tenantID uint, role, password string) (bool, error) {
	var row models.TenantPortalPassword
	if err := db.Where("tenant_id = ? AND role = ?", tenantID, role).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)) == nil, nil
}

// defaultAcademicYear renders "2024-2025" style labels from a point in time.
func defaultAcademicYear(now time.Time) string {
	return fmt.Sprintf("%d-%d", now.Year(), now.Year()+1)
}
