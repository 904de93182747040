// edumanage/internal/ledger/accounts.go
package ledger

import (
	"errors"

	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnsureAccounts materializes the three stream accounts for a student.
// It is called on student creation and again on every ledger read path so a
// dataset that pre-dates the create hook self-heals.
func EnsureAccounts(db *gorm.DB, student *models.Student) error {
	for _, stream := range models.Streams {
		if _, err := AccountFor(db, student.TenantID, student.ID, stream); err != nil {
			return err
		}
	}
	return nil
}

// AccountFor returns the student's account for one stream, creating it if
// missing.
func AccountFor(db *gorm.DB, tenantID, studentID uint, stream models.Stream) (*models.StreamAccount, error) {
	var account models.StreamAccount
	err := db.Where("tenant_id = ? AND student_id = ? AND stream = ?", tenantID, studentID, stream).
		First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = models.StreamAccount{
		TenantID:  tenantID,
		StudentID: studentID,
		Stream:    stream,
	}
	if err := db.Create(&account).Error; err != nil {
		// A concurrent creator may have won the unique index race.
		if isUniqueViolation(err) {
			if e := db.Where("tenant_id = ? AND student_id = ? AND stream = ?", tenantID, studentID, stream).
				First(&account).Error; e == nil {
				return &account, nil
			}
		}
		return nil, err
	}
	return &account, nil
}

// accountTotals is the scan target of the rebuild query.
type accountTotals struct {
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// RebuildAccount recomputes the denormalized totals of one account from its
// live transactions. Payments (and negative adjustments) are credits;
// invoices (and positive adjustments) are debits. It must run inside the
// same transaction as the journal write that triggered it.
func RebuildAccount(db *gorm.DB, accountID uint) error {
	var totals accountTotals
	err := db.Model(&models.Transaction{}).
		Select(`
			COALESCE(SUM(CASE
				WHEN kind = 'Payment' THEN CAST(amount AS NUMERIC)
				WHEN kind = 'Adjustment' AND CAST(amount AS NUMERIC) < 0 THEN -CAST(amount AS NUMERIC)
				ELSE 0 END), 0) AS credits,
			COALESCE(SUM(CASE
				WHEN kind = 'Invoice' THEN CAST(amount AS NUMERIC)
				WHEN kind = 'Adjustment' AND CAST(amount AS NUMERIC) > 0 THEN CAST(amount AS NUMERIC)
				ELSE 0 END), 0) AS debits`).
		Where("account_id = ?", accountID).
		Scan(&totals).Error
	if err != nil {
		return err
	}

	return db.Model(&models.StreamAccount{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"total_paid":   totals.Credits,
			"total_billed": totals.Debits,
			"balance":      totals.Debits.Sub(totals.Credits),
		}).Error
}
