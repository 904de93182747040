// edumanage/models/meal.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MealPlan is a catering option with a per-term cost.
type MealPlan struct {
	gorm.Model
	TenantID    uint            `json:"tenantId" gorm:"not null;uniqueIndex:idx_meal_plan_name"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex:idx_meal_plan_name"`
	CostPerTerm decimal.Decimal `json:"costPerTerm" gorm:"type:numeric(12,2);not null"`
}

// MealSubscription subscribes a student to a meal plan. Active subscriptions
// feed the meal revenue target.
type MealSubscription struct {
	gorm.Model
	TenantID  uint  `json:"tenantId" gorm:"not null;index"`
	StudentID uint  `json:"studentId" gorm:"not null;uniqueIndex:idx_meal_subscription"`
	PlanID    uint  `json:"planId" gorm:"not null"`
	Active    *bool `json:"active" gorm:"default:true"`

	Plan *MealPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}
