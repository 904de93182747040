// edumanage/internal/reporting/reporting_test.go
package reporting

import (
	"testing"

	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
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
		&models.FeeCategory{},
		&models.FeeStructure{},
		&models.StreamAccount{},
		&models.Transaction{},
		&models.TransportRoute{},
		&models.TransportAssignment{},
		&models.MealPlan{},
		&models.MealSubscription{},
	))
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, admissionFee int64) *models.Tenant {
	t.Helper()
	tenant := models.Tenant{
		Name:                "Test School",
		Code:                "EDU",
		AdmissionFormat:     "{SCHOOL_CODE}/{YEAR}/{COUNTER:04d}",
		CurrentTerm:         1,
		CurrentAcademicYear: "2024-2025",
		TermsPerYear:        3,
		AdmissionFee:        decimal.NewFromInt(admissionFee),
	}
	require.NoError(t, db.Create(&tenant).Error)
	return &tenant
}

func seedStudent(t *testing.T, db *gorm.DB, tenant *models.Tenant, gradeID *uint, admission string) *models.Student {
	t.Helper()
	student := models.Student{
		TenantID:        tenant.ID,
		GradeID:         gradeID,
		AdmissionNumber: admission,
		FirstName:       "Test",
		LastName:        admission,
		CurrentTerm:     1,
	}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, ledger.EnsureAccounts(db, &student))
	return &student
}

func seedMandatoryFees(t *testing.T, db *gorm.DB, tenant *models.Tenant, gradeID uint, perTerm int64) {
	t.Helper()
	category := models.FeeCategory{TenantID: tenant.ID, Name: "Tuition"}
	require.NoError(t, db.FirstOrCreate(&category, models.FeeCategory{TenantID: tenant.ID, Name: "Tuition"}).Error)
	for term := 1; term <= tenant.TermsPerYear; term++ {
		require.NoError(t, db.Create(&models.FeeStructure{
			TenantID:     tenant.ID,
			GradeID:      gradeID,
			Term:         term,
			AcademicYear: tenant.CurrentAcademicYear,
			CategoryID:   category.ID,
			Amount:       decimal.NewFromInt(perTerm),
			Mandatory:    true,
		}).Error)
	}
}

func payTuition(t *testing.T, db *gorm.DB, tenant *models.Tenant, studentID uint, amount int64) *models.Transaction {
	t.Helper()
	account, err := ledger.AccountFor(db, tenant.ID, studentID, models.StreamTuition)
	require.NoError(t, err)
	txn, err := ledger.RecordPayment(db, tenant.ID, account.ID, ledger.PaymentInput{
		Amount: decimal.NewFromInt(amount),
		Method: models.MethodCash,
	})
	require.NoError(t, err)
	return txn
}
