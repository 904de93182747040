// edumanage/internal/handlers/payment_handler.go
package handlers

import (
	"net/http"

	"edumanage/config"
	"edumanage/internal/ledger"
	"edumanage/internal/reporting"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type recordPaymentRequest struct {
	StudentID    uint            `json:"studentId" binding:"required"`
	Stream       models.Stream   `json:"stream"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method" binding:"required"`
	Reference    string          `json:"reference"`
	Term         *int            `json:"term"`
	AcademicYear string          `json:"academicYear"`
	Description  string          `json:"description"`
}

// RecordPaymentHandler posts a manual payment (cash, bank, cheque) to one
// of a student's stream accounts and returns the transaction for receipt
// emission.
func RecordPaymentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	stream := req.Stream
	if stream == "" {
		stream = models.StreamTuition
	}

	account, err := ledger.AccountFor(config.DB, tenant.ID, req.StudentID, stream)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	year := req.AcademicYear
	if year == "" {
		year = tenant.CurrentAcademicYear
	}
	txn, err := ledger.RecordPayment(config.DB, tenant.ID, account.ID, ledger.PaymentInput{
		Amount:       req.Amount,
		Method:       req.Method,
		Reference:    req.Reference,
		Term:         req.Term,
		AcademicYear: year,
		Description:  req.Description,
		RecordedBy:   recorder(c),
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

type recordInvoiceRequest struct {
	StudentID    uint            `json:"studentId" binding:"required"`
	Stream       models.Stream   `json:"stream"`
	Amount       decimal.Decimal `json:"amount"`
	Term         int             `json:"term" binding:"required"`
	AcademicYear string          `json:"academicYear"`
	Description  string          `json:"description"`
}

// RecordInvoiceHandler posts a one-off invoice outside the catalog
// reconciliation flow (e.g. a damage charge on the tuition account).
func RecordInvoiceHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req recordInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	stream := req.Stream
	if stream == "" {
		stream = models.StreamTuition
	}

	account, err := ledger.AccountFor(config.DB, tenant.ID, req.StudentID, stream)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	year := req.AcademicYear
	if year == "" {
		year = tenant.CurrentAcademicYear
	}

	txn, err := ledger.RecordInvoice(config.DB, tenant.ID, account.ID, req.Amount, req.Term, year, req.Description)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

type recordAdjustmentRequest struct {
	StudentID   uint            `json:"studentId" binding:"required"`
	Stream      models.Stream   `json:"stream"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required"`
}

// RecordAdjustmentHandler posts a signed adjustment: positive bills the
// student, negative credits them.
func RecordAdjustmentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req recordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	stream := req.Stream
	if stream == "" {
		stream = models.StreamTuition
	}

	account, err := ledger.AccountFor(config.DB, tenant.ID, req.StudentID, stream)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	txn, err := ledger.RecordAdjustment(config.DB, tenant.ID, account.ID, req.Amount, req.Description, recorder(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// ListTransactionsHandler returns one account's journal, newest first.
func ListTransactionsHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	accountID, ok := paramID(c, "accountId")
	if !ok {
		return
	}

	filter := ledger.TransactionFilter{
		Kind:         c.Query("kind"),
		AcademicYear: c.Query("academicYear"),
	}
	txns, err := ledger.ListTransactions(config.DB, tenant.ID, accountID, filter)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// DeleteTransactionHandler removes a journal entry and rebuilds the
// account. Permission-gated; use sparingly.
func DeleteTransactionHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ledger.DeleteTransaction(config.DB, tenant.ID, id); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// GetReceiptHandler renders the printable receipt for one payment.
func GetReceiptHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	receipt, err := reporting.BuildReceipt(config.DB, tenant.ID, id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
