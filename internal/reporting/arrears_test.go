// edumanage/internal/reporting/arrears_test.go
package reporting

import (
	"testing"

	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrearsReportThresholdAndOrder(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, 0)
	grade := models.Grade{TenantID: tenant.ID, Name: "Grade 1", Level: 1}
	require.NoError(t, db.Create(&grade).Error)
	seedMandatoryFees(t, db, tenant, grade.ID, 1000)

	small := seedStudent(t, db, tenant, &grade.ID, "A1")
	big := seedStudent(t, db, tenant, &grade.ID, "A2")
	clear := seedStudent(t, db, tenant, &grade.ID, "A3")

	invoice := func(studentID uint, amount int64) {
		account, err := ledger.AccountFor(db, tenant.ID, studentID, models.StreamTuition)
		require.NoError(t, err)
		_, err = ledger.RecordInvoice(db, tenant.ID, account.ID, decimal.NewFromInt(amount), 1, "2024-2025", "Term 1")
		require.NoError(t, err)
	}
	invoice(small.ID, 500)
	invoice(big.ID, 3000)
	invoice(clear.ID, 1000)
	payTuition(t, db, tenant, clear.ID, 1000)

	rows, err := ArrearsReport(db, tenant, decimal.Zero, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2, "settled students never show up")
	assert.Equal(t, big.ID, rows[0].StudentID, "worst debtor first")
	assert.Equal(t, small.ID, rows[1].StudentID)
	assert.Equal(t, "Grade 1", rows[0].GradeName)

	// The termly breakdown mirrors the grade's mandatory catalog.
	require.Len(t, rows[0].TermlyFees, 3)
	for _, fee := range rows[0].TermlyFees {
		assert.True(t, fee.Equal(decimal.NewFromInt(1000)))
	}

	// A higher threshold trims the small balance away.
	rows, err = ArrearsReport(db, tenant, decimal.NewFromInt(1000), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, big.ID, rows[0].StudentID)
}

func TestArrearsReportGradeFilter(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, 0)
	gradeA := models.Grade{TenantID: tenant.ID, Name: "Grade 1", Level: 1}
	gradeB := models.Grade{TenantID: tenant.ID, Name: "Grade 2", Level: 2}
	require.NoError(t, db.Create(&gradeA).Error)
	require.NoError(t, db.Create(&gradeB).Error)

	inA := seedStudent(t, db, tenant, &gradeA.ID, "A1")
	inB := seedStudent(t, db, tenant, &gradeB.ID, "B1")
	for _, id := range []uint{inA.ID, inB.ID} {
		account, err := ledger.AccountFor(db, tenant.ID, id, models.StreamTuition)
		require.NoError(t, err)
		_, err = ledger.RecordInvoice(db, tenant.ID, account.ID, decimal.NewFromInt(800), 1, "2024-2025", "Term 1")
		require.NoError(t, err)
	}

	rows, err := ArrearsReport(db, tenant, decimal.Zero, &gradeA.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inA.ID, rows[0].StudentID)
}

func TestArrearsWorkbook(t *testing.T) {
	rows := []ArrearsRow{
		{
			AdmissionNumber: "EDU/2024/0001",
			StudentName:     "Amina Otieno",
			GradeName:       "Grade 1",
			TotalBilled:     decimal.NewFromInt(3000),
			TotalPaid:       decimal.NewFromInt(1000),
			Balance:         decimal.NewFromInt(2000),
		},
	}

	f, err := ArrearsWorkbook(rows)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Arrears", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Admission No", header)

	name, err := f.GetCellValue("Arrears", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Amina Otieno", name)

	balance, err := f.GetCellValue("Arrears", "F2")
	require.NoError(t, err)
	assert.Equal(t, "2000", balance)

	summary, err := f.GetCellValue("Arrears", "A4")
	require.NoError(t, err)
	assert.Equal(t, "1 students in arrears", summary)
}
