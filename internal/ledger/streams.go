// edumanage/internal/ledger/streams.go
package ledger

import (
	"errors"
	"fmt"

	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillTransportTerm invoices every active transport assignment for one
// (term, year) at its route's per-term cost. Like fee reconciliation it
// updates-or-inserts the single invoice per (account, term, year), so
// re-running it after a route price change corrects the invoices instead of
// stacking new ones.
func BillTransportTerm(db *gorm.DB, tenantID uint, term int, academicYear string) (int, error) {
	billed := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var assignments []models.TransportAssignment
		if err := tx.Preload("Route").
			Where("tenant_id = ? AND active = ?", tenantID, true).
			Order("student_id ASC").
			Find(&assignments).Error; err != nil {
			return err
		}

		for i := range assignments {
			a := &assignments[i]
			if a.Route == nil {
				continue
			}
			account, err := AccountFor(tx, tenantID, a.StudentID, models.StreamTransport)
			if err != nil {
				return err
			}
			if err := upsertTermInvoice(tx, tenantID, account.ID, a.Route.CostPerTerm, term, academicYear,
				fmt.Sprintf("Term %d transport (%s)", term, a.Route.Name)); err != nil {
				return err
			}
			billed++
		}
		return nil
	})
	return billed, err
}

// BillMealTerm invoices every active meal subscription for one (term, year).
func BillMealTerm(db *gorm.DB, tenantID uint, term int, academicYear string) (int, error) {
	billed := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var subs []models.MealSubscription
		if err := tx.Preload("Plan").
			Where("tenant_id = ? AND active = ?", tenantID, true).
			Order("student_id ASC").
			Find(&subs).Error; err != nil {
			return err
		}

		for i := range subs {
			s := &subs[i]
			if s.Plan == nil {
				continue
			}
			account, err := AccountFor(tx, tenantID, s.StudentID, models.StreamMeal)
			if err != nil {
				return err
			}
			if err := upsertTermInvoice(tx, tenantID, account.ID, s.Plan.CostPerTerm, term, academicYear,
				fmt.Sprintf("Term %d meals (%s)", term, s.Plan.Name)); err != nil {
				return err
			}
			billed++
		}
		return nil
	})
	return billed, err
}

// upsertTermInvoice keeps the one-invoice-per-(account, term, year)
// invariant for the non-tuition streams.
func upsertTermInvoice(tx *gorm.DB, tenantID, accountID uint, amount decimal.Decimal, term int, academicYear, description string) error {
	var invoice models.Transaction
	err := tx.Where("account_id = ? AND kind = ? AND term = ? AND academic_year = ?",
		accountID, models.TxInvoice, term, academicYear).
		First(&invoice).Error
	switch {
	case err == nil:
		if invoice.Amount.Equal(amount) {
			return nil
		}
		if err := tx.Model(&invoice).Updates(map[string]interface{}{
			"amount":      amount,
			"description": description + " (Updated)",
		}).Error; err != nil {
			return err
		}
		return RebuildAccount(tx, accountID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, err := RecordInvoice(tx, tenantID, accountID, amount, term, academicYear, description)
		return err
	default:
		return err
	}
}
