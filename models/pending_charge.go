// edumanage/models/pending_charge.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PendingCharge statuses. Completed and Failed are terminal; the expiry
// sweep moves stale Pending rows to Failed.
const (
	ChargePending   = "Pending"
	ChargeCompleted = "Completed"
	ChargeFailed    = "Failed"
	ChargeExpired   = "Expired"
)

// PendingCharge is an STK push that has been dispatched to the gateway but
// not yet confirmed. The Reference doubles as the idempotency key: a single
// reference can never materialize more than one payment transaction.
type PendingCharge struct {
	gorm.Model
	TenantID uint `json:"tenantId" gorm:"not null;index"`

	// Reference is the internal idempotency reference echoed to the
	// gateway (STU_FEE_... or SUB_UP_...).
	Reference  string `json:"reference" gorm:"unique;not null"`
	GatewayRef string `json:"gatewayRef"`

	StudentID *uint  `json:"studentId" gorm:"index"`
	Plan      string `json:"plan"`

	Amount decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Phone  string          `json:"phone"`

	Status       string     `json:"status" gorm:"not null;default:'Pending';index"`
	GatewayTxnID string     `json:"gatewayTxnId"`
	CompletedAt  *time.Time `json:"completedAt"`
}
