// edumanage/internal/reporting/trend_test.go
package reporting

import (
	"testing"
	"time"

	"edumanage/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTrendIsDenseAndAscending(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, 0)
	student := seedStudent(t, db, tenant, nil, "A1")

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	// Payments in March (two) and May (one); April stays empty.
	for _, p := range []struct {
		at     time.Time
		amount int64
	}{
		{time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), 1000},
		{time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), 500},
		{time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), 700},
	} {
		txn := payTuition(t, db, tenant, student.ID, p.amount)
		require.NoError(t, db.Model(&models.Transaction{}).Where("id = ?", txn.ID).
			Update("created_at", p.at).Error)
	}

	series, err := PaymentTrend(db, tenant.ID, 6, now)
	require.NoError(t, err)
	require.Len(t, series, 6)

	months := make([]string, 0, 6)
	for _, point := range series {
		months = append(months, point.Month)
	}
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}, months)

	assert.True(t, series[2].Total.Equal(decimal.NewFromInt(1500)), "march=%s", series[2].Total)
	assert.True(t, series[3].Total.IsZero(), "april must appear with zero")
	assert.True(t, series[4].Total.Equal(decimal.NewFromInt(700)))
	assert.True(t, series[5].Total.IsZero())
}

func TestPaymentTrendIgnoresOtherTenantsAndKinds(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, 0)
	student := seedStudent(t, db, tenant, nil, "A1")

	other := models.Tenant{Name: "Other", Code: "OTH", CurrentAcademicYear: "2024-2025", TermsPerYear: 3, CurrentTerm: 1, AdmissionFormat: "{COUNTER}"}
	require.NoError(t, db.Create(&other).Error)
	otherStudent := seedStudent(t, db, &other, nil, "B1")

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	txn := payTuition(t, db, tenant, student.ID, 300)
	require.NoError(t, db.Model(&models.Transaction{}).Where("id = ?", txn.ID).
		Update("created_at", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).Error)
	foreign := payTuition(t, db, &other, otherStudent.ID, 9999)
	require.NoError(t, db.Model(&models.Transaction{}).Where("id = ?", foreign.ID).
		Update("created_at", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).Error)

	series, err := PaymentTrend(db, tenant.ID, 1, now)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.True(t, series[0].Total.Equal(decimal.NewFromInt(300)), "total=%s", series[0].Total)
}
