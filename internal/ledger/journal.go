// edumanage/internal/ledger/journal.go
package ledger

import (
	"errors"
	"strings"

	"edumanage/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentInput carries everything RecordPayment needs beyond the account.
type PaymentInput struct {
	Amount       decimal.Decimal
	Method       string
	Reference    string
	Term         *int
	AcademicYear string
	Description  string
	RecordedBy   *uint
}

// RecordInvoice appends an Invoice transaction and rebuilds the owning
// account's aggregates in one transaction. Invoice amounts may be zero (a
// grade with no mandatory fees) but never negative.
func RecordInvoice(db *gorm.DB, tenantID, accountID uint, amount decimal.Decimal, term int, academicYear, description string) (*models.Transaction, error) {
	if amount.IsNegative() {
		return nil, ErrAmountInvalid
	}

	var txn *models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		account, err := guardedAccount(tx, tenantID, accountID)
		if err != nil {
			return err
		}
		t := models.Transaction{
			TenantID:     tenantID,
			AccountID:    account.ID,
			Kind:         models.TxInvoice,
			Amount:       amount,
			Description:  description,
			Method:       models.MethodSystem,
			Term:         &term,
			AcademicYear: academicYear,
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if err := RebuildAccount(tx, account.ID); err != nil {
			return err
		}
		txn = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RecordPayment appends a Payment transaction and rebuilds the account. The
// returned transaction feeds receipt emission. Cash payments get a generated
// CASH-{uuid12} reference; every other method must carry one.
func RecordPayment(db *gorm.DB, tenantID, accountID uint, input PaymentInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrAmountInvalid
	}

	reference := strings.TrimSpace(input.Reference)
	switch input.Method {
	case models.MethodCash:
		if reference == "" {
			reference = CashReference()
		}
	case models.MethodMpesa, models.MethodBank, models.MethodCheque, models.MethodSystem:
		if reference == "" {
			return nil, ErrReferenceRequired
		}
	default:
		return nil, ErrReferenceRequired
	}

	var txn *models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		account, err := guardedAccount(tx, tenantID, accountID)
		if err != nil {
			return err
		}
		t := models.Transaction{
			TenantID:     tenantID,
			AccountID:    account.ID,
			Kind:         models.TxPayment,
			Amount:       input.Amount,
			Description:  input.Description,
			Reference:    reference,
			Method:       input.Method,
			Term:         input.Term,
			AcademicYear: input.AcademicYear,
			RecordedBy:   input.RecordedBy,
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if err := RebuildAccount(tx, account.ID); err != nil {
			return err
		}
		txn = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RecordAdjustment appends an Adjustment. Positive amounts bill the student,
// negative amounts credit them.
func RecordAdjustment(db *gorm.DB, tenantID, accountID uint, amount decimal.Decimal, description string, recordedBy *uint) (*models.Transaction, error) {
	if amount.IsZero() {
		return nil, ErrAmountInvalid
	}

	var txn *models.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		account, err := guardedAccount(tx, tenantID, accountID)
		if err != nil {
			return err
		}
		t := models.Transaction{
			TenantID:    tenantID,
			AccountID:   account.ID,
			Kind:        models.TxAdjustment,
			Amount:      amount,
			Description: description,
			Method:      models.MethodSystem,
			RecordedBy:  recordedBy,
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		if err := RebuildAccount(tx, account.ID); err != nil {
			return err
		}
		txn = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	Kind         string
	Term         *int
	AcademicYear string
	Limit        int
}

// ListTransactions returns an account's transactions, newest first.
func ListTransactions(db *gorm.DB, tenantID, accountID uint, filter TransactionFilter) ([]models.Transaction, error) {
	query := db.Where("tenant_id = ? AND account_id = ?", tenantID, accountID)
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Term != nil {
		query = query.Where("term = ?", *filter.Term)
	}
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var txns []models.Transaction
	if err := query.Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// DeleteTransaction soft-deletes a journal entry and rebuilds the account.
// Deletion is permitted but discouraged; the route is permission-gated.
func DeleteTransaction(db *gorm.DB, tenantID, txnID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("tenant_id = ?", tenantID).First(&txn, txnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&txn).Error; err != nil {
			return err
		}
		return RebuildAccount(tx, txn.AccountID)
	})
}

// CashReference generates the receipt reference for cash payments,
// CASH- followed by 12 hex characters.
func CashReference() string {
	return "CASH-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// guardedAccount loads an account and enforces the tenant triple-match:
// the caller's tenant, the account's tenant and the student's tenant must
// all agree before a journal write is accepted.
func guardedAccount(tx *gorm.DB, tenantID, accountID uint) (*models.StreamAccount, error) {
	var account models.StreamAccount
	if err := tx.Preload("Student").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if account.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	if account.Student != nil && account.Student.TenantID != tenantID {
		return nil, ErrTenantMismatch
	}
	return &account, nil
}
