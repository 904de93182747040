// edumanage/models/account.go

package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stream is one of the three independent revenue tracks.
type Stream string

const (
	StreamTuition   Stream = "Tuition"
	StreamTransport Stream = "Transport"
	StreamMeal      Stream = "Meal"
)

// Streams lists every stream in materialization order.
var Streams = []Stream{StreamTuition, StreamTransport, StreamMeal}

// StreamAccount is the per-student ledger for one stream. The three totals
// are denormalized from the account's transactions and rebuilt inside the
// same transaction as every journal write, so a positive Balance always
// means the student owes.
type StreamAccount struct {
	gorm.Model
	TenantID  uint   `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_stream_account_owner"`
	StudentID uint   `json:"studentId" gorm:"not null;uniqueIndex:idx_stream_account_owner"`
	Stream    Stream `json:"stream" gorm:"not null;uniqueIndex:idx_stream_account_owner"`

	TotalBilled decimal.Decimal `json:"totalBilled" gorm:"type:numeric(12,2);default:0"`
	TotalPaid   decimal.Decimal `json:"totalPaid" gorm:"type:numeric(12,2);default:0"`
	Balance     decimal.Decimal `json:"balance" gorm:"type:numeric(12,2);default:0"`

	Active *bool `json:"active" gorm:"default:true"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}
