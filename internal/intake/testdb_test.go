// edumanage/internal/intake/testdb_test.go
package intake

import (
	"testing"
	"time"

	"edumanage/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.Grade{},
		&models.Student{},
		&models.StreamAccount{},
		&models.Transaction{},
		&models.PendingCharge{},
		&models.SubscriptionPayment{},
	))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, code string) *models.Tenant {
	t.Helper()
	tenant := models.Tenant{
		Name:                code + " School",
		Code:                code,
		AdmissionFormat:     "{SCHOOL_CODE}/{YEAR}/{COUNTER:04d}",
		CurrentTerm:         1,
		CurrentAcademicYear: "2024-2025",
		TermsPerYear:        3,
	}
	require.NoError(t, db.Create(&tenant).Error)
	return &tenant
}

func seedStudent(t *testing.T, db *gorm.DB, tenantID uint) *models.Student {
	t.Helper()
	student := models.Student{
		TenantID:        tenantID,
		AdmissionNumber: "EDU/2024/0042",
		FirstName:       "Amina",
		LastName:        "Otieno",
		CurrentTerm:     1,
	}
	require.NoError(t, db.Create(&student).Error)
	return &student
}

// fakeGateway is a scriptable Gateway used by the pipeline tests.
type fakeGateway struct {
	initiateErr error
	verifyOK    bool
	verifyData  VerifyData
	verifyErr   error

	initiated []string
	verified  []string
}

func (f *fakeGateway) InitiateCharge(email, phone string, amountMinor int64, reference string, metadata map[string]interface{}) (string, error) {
	f.initiated = append(f.initiated, reference)
	if f.initiateErr != nil {
		return "", f.initiateErr
	}
	return reference, nil
}

func (f *fakeGateway) VerifyCharge(reference string) (bool, VerifyData, error) {
	f.verified = append(f.verified, reference)
	if f.verifyErr != nil {
		return false, VerifyData{}, f.verifyErr
	}
	return f.verifyOK, f.verifyData, nil
}

// testPipeline pins the clock so generated references are deterministic.
func testPipeline(gw Gateway, at time.Time) *Pipeline {
	p := NewPipeline(gw)
	p.now = func() time.Time { return at }
	return p
}
