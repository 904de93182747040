// edumanage/internal/handlers/charge_handler.go
package handlers

import (
	"net/http"

	"edumanage/config"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type studentChargeRequest struct {
	StudentID uint            `json:"studentId" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Phone     string          `json:"phone" binding:"required"`
	Email     string          `json:"email"`
}

// InitiateStudentChargeHandler starts an STK push for a student fee
// payment. A PendingCharge row exists only once the gateway accepts.
func InitiateStudentChargeHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req studentChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	charge, err := Pipeline.InitiateStudentCharge(config.DB, tenant.ID, req.StudentID, req.Amount, req.Phone, req.Email)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, charge)
}

type subscriptionChargeRequest struct {
	Plan   string          `json:"plan" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Phone  string          `json:"phone" binding:"required"`
	Email  string          `json:"email"`
}

// InitiateSubscriptionChargeHandler starts an STK push for a tenant plan
// upgrade.
func InitiateSubscriptionChargeHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req subscriptionChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	charge, err := Pipeline.InitiateSubscriptionCharge(config.DB, tenant.ID, req.Plan, req.Amount, req.Phone, req.Email)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, charge)
}

// VerifyChargeHandler is the caller-driven fallback when the webhook is
// slow: it queries the gateway synchronously and finalizes on confirmation.
// A race with a late webhook resolves through the reference-keyed
// idempotency in the pipeline.
func VerifyChargeHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	reference := c.Param("reference")

	charge, err := Pipeline.VerifyPending(config.DB, reference)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if charge.TenantID != tenant.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "No charge found for this reference"})
		return
	}
	c.JSON(http.StatusOK, charge)
}

// ListPendingChargesHandler returns the tenant's recent intake records,
// newest first, optionally filtered by status.
func ListPendingChargesHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	query := config.DB.Model(&models.PendingCharge{}).Where("tenant_id = ?", tenant.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count charges"})
		return
	}

	var charges []models.PendingCharge
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&charges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch charges"})
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, charges, totalRows))
}
