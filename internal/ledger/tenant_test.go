// edumanage/internal/ledger/tenant_test.go
package ledger

import (
	"testing"

	"edumanage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTenantRejectsAnonymous(t *testing.T) {
	db := openTestDB(t)
	_, err := ResolveTenant(db, Identity{}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveTenantByOwnership(t *testing.T) {
	db := openTestDB(t)
	owner := uint(11)
	tenant, err := SignupTenant(db, SignupInput{Name: "Owned", Code: "OWN", OwnerID: owner})
	require.NoError(t, err)

	resolved, err := ResolveTenant(db, Identity{UserID: owner}, nil)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, resolved.ID)
}

func TestResolveTenantByProfile(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "EDU")
	require.NoError(t, db.Create(&models.Profile{
		UserID:   22,
		TenantID: tenant.ID,
		Kind:     models.ProfileTeacher,
	}).Error)

	resolved, err := ResolveTenant(db, Identity{UserID: 22}, nil)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, resolved.ID)
}

func TestResolveTenantHintAuthorization(t *testing.T) {
	db := openTestDB(t)
	tenantA := seedTenant(t, db, "AAA")
	owner := uint(33)
	tenantB, err := SignupTenant(db, SignupInput{Name: "B", Code: "BBB", OwnerID: owner})
	require.NoError(t, err)

	// The owner may hint at their own tenant.
	resolved, err := ResolveTenant(db, Identity{UserID: owner}, &tenantB.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantB.ID, resolved.ID)

	// A hint at someone else's tenant falls back to the owned one instead
	// of leaking data across the partition.
	resolved, err = ResolveTenant(db, Identity{UserID: owner}, &tenantA.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantB.ID, resolved.ID)

	// Super admins may hint at anything.
	resolved, err = ResolveTenant(db, Identity{UserID: 1, IsSuperAdmin: true}, &tenantA.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantA.ID, resolved.ID)
}

func TestResolveTenantUnlinkedUserHasNoTenant(t *testing.T) {
	db := openTestDB(t)
	seedTenant(t, db, "EDU")

	_, err := ResolveTenant(db, Identity{UserID: 44}, nil)
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestResolveTenantStaffFallback(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "EDU")

	resolved, err := ResolveTenant(db, Identity{UserID: 55, IsStaff: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, resolved.ID)
}

func TestResolveTenantStaffCreatesDefaultWhenEmpty(t *testing.T) {
	db := openTestDB(t)

	resolved, err := ResolveTenant(db, Identity{UserID: 66, IsStaff: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", resolved.Code)

	var count int64
	require.NoError(t, db.Model(&models.Tenant{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSignupTenantStartsTrial(t *testing.T) {
	db := openTestDB(t)
	tenant, err := SignupTenant(db, SignupInput{Name: "New School", Code: "NEW", OwnerID: 7})
	require.NoError(t, err)

	var reloaded models.Tenant
	require.NoError(t, db.First(&reloaded, tenant.ID).Error)
	assert.Equal(t, models.SubscriptionTrial, reloaded.SubscriptionStatus)
	require.NotNil(t, reloaded.TrialEndDate)
	assert.NotEmpty(t, reloaded.CurrentAcademicYear)
}

func TestSuspendAndActivateTenant(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "EDU")

	require.NoError(t, SuspendTenant(db, tenant.ID))
	var reloaded models.Tenant
	require.NoError(t, db.First(&reloaded, tenant.ID).Error)
	assert.Equal(t, models.SubscriptionSuspended, reloaded.SubscriptionStatus)

	require.NoError(t, ActivateTenant(db, tenant.ID))
	require.NoError(t, db.First(&reloaded, tenant.ID).Error)
	assert.Equal(t, models.SubscriptionActive, reloaded.SubscriptionStatus)

	assert.ErrorIs(t, SuspendTenant(db, 999), ErrNotFound)
}

func TestSetCurrentPeriodBounds(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "EDU")

	require.NoError(t, SetCurrentPeriod(db, tenant.ID, 2, "2025-2026"))
	var reloaded models.Tenant
	require.NoError(t, db.First(&reloaded, tenant.ID).Error)
	assert.Equal(t, 2, reloaded.CurrentTerm)
	assert.Equal(t, "2025-2026", reloaded.CurrentAcademicYear)

	assert.ErrorIs(t, SetCurrentPeriod(db, tenant.ID, 0, ""), ErrTermInvalid)
	assert.ErrorIs(t, SetCurrentPeriod(db, tenant.ID, 4, ""), ErrTermInvalid)
}

func TestPortalPasswordRoundTrip(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "EDU")

	require.NoError(t, SetPortalPassword(db, tenant.ID, "teacher", "chalkboard"))

	ok, err := CheckPortalPassword(db, tenant.ID, "teacher", "chalkboard")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPortalPassword(db, tenant.ID, "teacher", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckPortalPassword(db, tenant.ID, "parent", "chalkboard")
	require.NoError(t, err)
	assert.False(t, ok)

	// Replacing the password invalidates the old one.
	require.NoError(t, SetPortalPassword(db, tenant.ID, "teacher", "newboard"))
	ok, err = CheckPortalPassword(db, tenant.ID, "teacher", "chalkboard")
	require.NoError(t, err)
	assert.False(t, ok)
}
