// edumanage/models/transaction.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction kinds. Amounts are always stored positive; the kind supplies
// the direction (Adjustments may be negative, meaning a credit).
const (
	TxInvoice    = "Invoice"
	TxPayment    = "Payment"
	TxAdjustment = "Adjustment"
)

// Payment methods.
const (
	MethodCash   = "Cash"
	MethodMpesa  = "Mpesa"
	MethodBank   = "Bank"
	MethodCheque = "Cheque"
	MethodSystem = "System"
)

// Transaction is one event on a stream account's ledger. Creating one always
// rebuilds the owning account's aggregates within the same database
// transaction.
type Transaction struct {
	gorm.Model
	TenantID  uint `json:"tenantId" gorm:"not null;index"`
	AccountID uint `json:"accountId" gorm:"not null;index"`

	Kind        string          `json:"kind" gorm:"not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Description string          `json:"description"`

	// Reference holds the mobile-money reference, receipt number or the
	// generated CASH- code. Empty for invoices.
	Reference string `json:"reference" gorm:"index"`
	Method    string `json:"method"`

	Term         *int   `json:"term"`
	AcademicYear string `json:"academicYear"`

	// RecordedBy is nil for system-originated entries (webhook
	// finalization, reconciliation).
	RecordedBy *uint `json:"recordedBy"`

	Account *StreamAccount `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}
