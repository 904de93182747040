// edumanage/models/fee.go

package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeCategory is a per-tenant named fee bucket ("Tuition", "Lab Fees", ...).
type FeeCategory struct {
	gorm.Model
	TenantID uint   `json:"tenantId" gorm:"not null;uniqueIndex:idx_fee_category_name"`
	Name     string `json:"name" gorm:"not null;uniqueIndex:idx_fee_category_name"`
}

// FeeStructure is one billing catalog entry, uniquely keyed by
// (tenant, grade, term, academic year, category). The mandatory rows of a
// (grade, term, year) sum to that grade's invoiced term total.
type FeeStructure struct {
	gorm.Model
	TenantID     uint            `json:"tenantId" gorm:"not null;uniqueIndex:idx_fee_structure_key"`
	GradeID      uint            `json:"gradeId" gorm:"not null;uniqueIndex:idx_fee_structure_key"`
	Term         int             `json:"term" gorm:"not null;uniqueIndex:idx_fee_structure_key"`
	AcademicYear string          `json:"academicYear" gorm:"not null;uniqueIndex:idx_fee_structure_key"`
	CategoryID   uint            `json:"categoryId" gorm:"not null;uniqueIndex:idx_fee_structure_key"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Mandatory    bool            `json:"mandatory" gorm:"default:true"`
	Description  string          `json:"description"`

	Grade    *Grade       `json:"grade,omitempty" gorm:"foreignKey:GradeID"`
	Category *FeeCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}
