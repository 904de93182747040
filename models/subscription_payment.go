// edumanage/models/subscription_payment.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionPayment records a tenant-level plan payment. It goes through
// the same intake pipeline as student payments and is distinguished by the
// SUB_UP reference prefix.
type SubscriptionPayment struct {
	gorm.Model
	TenantID  uint            `json:"tenantId" gorm:"not null;index"`
	Plan      string          `json:"plan" gorm:"not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Reference string          `json:"reference" gorm:"index"`
	Status    string          `json:"status" gorm:"not null;default:'Completed'"`
	PaidAt    time.Time       `json:"paidAt"`
}
