// edumanage/internal/handlers/fee_structure_handler.go
package handlers

import (
	"net/http"

	"edumanage/config"
	"edumanage/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListFeeStructuresHandler returns the tenant's billing catalog with grade
// and category labels, ordered by grade then term.
func ListFeeStructuresHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	rows, err := ledger.ListFeeStructures(config.DB, tenant.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch fee structures"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

type createFeeStructureRequest struct {
	GradeID      uint            `json:"gradeId" binding:"required"`
	Term         int             `json:"term" binding:"required"`
	AcademicYear string          `json:"academicYear" binding:"required"`
	CategoryID   uint            `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Mandatory    *bool           `json:"mandatory"`
	Description  string          `json:"description"`
}

// CreateFeeStructureHandler adds one catalog entry. The category may be
// given by id or by name (created on first use). A mandatory entry
// immediately reconciles the grade's invoices for that term.
func CreateFeeStructureHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req createFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	categoryID := req.CategoryID
	if categoryID == 0 {
		if req.CategoryName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A category id or name is required"})
			return
		}
		category, err := ledger.FeeCategoryFor(config.DB, tenant.ID, req.CategoryName)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		categoryID = category.ID
	}

	mandatory := true
	if req.Mandatory != nil {
		mandatory = *req.Mandatory
	}

	structure, err := ledger.CreateFeeStructure(config.DB, tenant.ID, ledger.FeeStructureInput{
		GradeID:      req.GradeID,
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
		CategoryID:   categoryID,
		Amount:       req.Amount,
		Mandatory:    mandatory,
		Description:  req.Description,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if structure.Mandatory {
		if err := ledger.ReconcileGradeInvoices(config.DB, tenant.ID, structure.GradeID, structure.Term, structure.AcademicYear); err != nil {
			respondLedgerError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, structure)
}

// DeleteFeeStructureHandler hard-deletes a catalog entry without touching
// prior invoices.
func DeleteFeeStructureHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ledger.DeleteFeeStructure(config.DB, tenant.ID, id); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fee structure deleted"})
}

// BulkUpdateFeeStructuresHandler applies amount changes atomically and
// reconciles every affected grade's invoices.
func BulkUpdateFeeStructuresHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var updates []ledger.AmountUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
		return
	}

	if err := ledger.BulkUpdateAmounts(config.DB, tenant.ID, updates); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fee structures updated"})
}
