// edumanage/internal/ledger/testdb_test.go
package ledger

import (
	"testing"

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

	// A single connection keeps every session on the same in-memory
	// database and serializes writers the way sqlite expects.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.TenantPortalPassword{},
		&models.User{},
		&models.Profile{},
		&models.Role{},
		&models.Permission{},
		&models.Grade{},
		&models.Student{},
		&models.FeeCategory{},
		&models.FeeStructure{},
		&models.StreamAccount{},
		&models.Transaction{},
		&models.PendingCharge{},
		&models.SubscriptionPayment{},
		&models.TransportRoute{},
		&models.TransportAssignment{},
		&models.MealPlan{},
		&models.MealSubscription{},
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

func seedGrade(t *testing.T, db *gorm.DB, tenantID uint, name string, level int) *models.Grade {
	t.Helper()
	grade := models.Grade{TenantID: tenantID, Name: name, Level: level}
	require.NoError(t, db.Create(&grade).Error)
	return &grade
}

func seedStudent(t *testing.T, db *gorm.DB, tenantID uint, gradeID *uint, first, last string) *models.Student {
	t.Helper()
	student, err := CreateStudent(db, tenantID, StudentInput{
		FirstName: first,
		LastName:  last,
		GradeID:   gradeID,
	})
	require.NoError(t, err)
	return student
}
