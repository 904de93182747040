// edumanage/internal/handlers/meal_handler.go
package handlers

import (
	"errors"
	"net/http"

	"edumanage/config"
	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListMealPlansHandler returns the school's catering plans.
func ListMealPlansHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	var plans []models.MealPlan
	if err := config.DB.Where("tenant_id = ?", tenant.ID).
		Order("name ASC").Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch meal plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

type mealPlanRequest struct {
	Name        string          `json:"name" binding:"required"`
	CostPerTerm decimal.Decimal `json:"costPerTerm"`
}

// CreateMealPlanHandler registers a catering plan with its per-term cost.
func CreateMealPlanHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req mealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if req.CostPerTerm.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cost per term cannot be negative"})
		return
	}

	plan := models.MealPlan{TenantID: tenant.ID, Name: req.Name, CostPerTerm: req.CostPerTerm}
	if err := config.DB.Create(&plan).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A meal plan with this name already exists"})
		return
	}
	c.JSON(http.StatusCreated, plan)
}

type mealSubscribeRequest struct {
	StudentID uint  `json:"studentId" binding:"required"`
	PlanID    uint  `json:"planId" binding:"required"`
	Active    *bool `json:"active"`
}

// SubscribeMealHandler subscribes a student to a plan, replacing any
// previous subscription.
func SubscribeMealHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req mealSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var plan models.MealPlan
	if err := config.DB.Where("id = ? AND tenant_id = ?", req.PlanID, tenant.ID).First(&plan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meal plan not found"})
		return
	}
	var student models.Student
	if err := config.DB.Where("id = ? AND tenant_id = ?", req.StudentID, tenant.ID).First(&student).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var sub models.MealSubscription
	err := config.DB.Where("tenant_id = ? AND student_id = ?", tenant.ID, req.StudentID).First(&sub).Error
	switch {
	case err == nil:
		sub.PlanID = req.PlanID
		sub.Active = &active
		err = config.DB.Save(&sub).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.MealSubscription{
			TenantID:  tenant.ID,
			StudentID: req.StudentID,
			PlanID:    req.PlanID,
			Active:    &active,
		}
		err = config.DB.Create(&sub).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// BillMealTermHandler raises the current term's meal invoices for every
// active subscription. Repeat calls update existing term invoices.
func BillMealTermHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	billed, err := ledger.BillMealTerm(config.DB, tenant.ID, tenant.CurrentTerm, tenant.CurrentAcademicYear)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Meal billing complete",
		"billed":  billed,
		"term":    tenant.CurrentTerm,
		"year":    tenant.CurrentAcademicYear,
	})
}
