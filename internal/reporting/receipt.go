// edumanage/internal/reporting/receipt.go
package reporting

import (
	"errors"
	"fmt"
	"time"

	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/divan/num2words"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is the printable record of one payment. Amounts are rendered with
// banker's rounding; truncation never happens on display.
type Receipt struct {
	ReceiptNumber   string    `json:"receiptNumber"`
	IssuedAt        time.Time `json:"issuedAt"`
	StudentName     string    `json:"studentName"`
	AdmissionNumber string    `json:"admissionNumber"`
	Stream          string    `json:"stream"`
	Method          string    `json:"method"`
	Amount          string    `json:"amount"`
	AmountInWords   string    `json:"amountInWords"`
	BalanceAfter    string    `json:"balanceAfter"`
}

// BuildReceipt renders the receipt for one payment transaction.
func BuildReceipt(db *gorm.DB, tenantID, txnID uint) (*Receipt, error) {
	var txn models.Transaction
	err := db.Preload("Account.Student").
		Where("tenant_id = ? AND kind = ?", tenantID, models.TxPayment).
		First(&txn, txnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}

	receipt := &Receipt{
		ReceiptNumber: txn.Reference,
		IssuedAt:      txn.CreatedAt,
		Method:        txn.Method,
		Amount:        txn.Amount.StringFixedBank(2),
		AmountInWords: AmountInWords(txn.Amount),
	}
	if txn.Account != nil {
		receipt.Stream = string(txn.Account.Stream)
		balance, err := balanceAsOf(db, &txn)
		if err != nil {
			return nil, err
		}
		receipt.BalanceAfter = balance.StringFixedBank(2)
		if txn.Account.Student != nil {
			receipt.StudentName = txn.Account.Student.FullName()
			receipt.AdmissionNumber = txn.Account.Student.AdmissionNumber
		}
	}
	return receipt, nil
}

// balanceAsOf replays the account's journal up to and including the given
// transaction, so a reprinted receipt shows the balance as it stood when
// the payment was taken, not the account's current one.
func balanceAsOf(db *gorm.DB, txn *models.Transaction) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Select(`COALESCE(SUM(CASE
			WHEN kind = 'Payment' THEN -CAST(amount AS NUMERIC)
			ELSE CAST(amount AS NUMERIC) END), 0)`).
		Where("account_id = ?", txn.AccountID).
		Where("created_at < ? OR (created_at = ? AND id <= ?)", txn.CreatedAt, txn.CreatedAt, txn.ID).
		Scan(&balance).Error
	return balance, err
}

// AmountInWords spells an amount out for the receipt body, e.g.
// "five thousand shillings" or "one hundred twenty shillings and fifty cents".
func AmountInWords(amount decimal.Decimal) string {
	rounded := amount.RoundBank(2)
	shillings := rounded.IntPart()
	cents := rounded.Sub(decimal.NewFromInt(shillings)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	words := num2words.Convert(int(shillings)) + " shillings"
	if cents > 0 {
		words = fmt.Sprintf("%s and %s cents", words, num2words.Convert(int(cents)))
	}
	return words
}
