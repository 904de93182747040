// edumanage/internal/handlers/handler_utils.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"edumanage/config"
	"edumanage/internal/intake"
	"edumanage/internal/ledger"
	"edumanage/internal/middleware"
	"edumanage/models"

	"github.com/gin-gonic/gin"
)

// Pipeline is the shared payment intake pipeline, wired in main.
var Pipeline *intake.Pipeline

// requestTenant resolves the caller's tenant for the current request. An
// explicit hint may arrive in the X-Tenant-ID header or ?tenant query
// parameter. On failure it writes the error response and returns nil.
func requestTenant(c *gin.Context) *models.Tenant {
	var hint *uint
	raw := c.GetHeader("X-Tenant-ID")
	if raw == "" {
		raw = c.Query("tenant")
	}
	if raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			h := uint(id)
			hint = &h
		}
	}

	tenant, err := ledger.ResolveTenant(config.DB, middleware.Identity(c), hint)
	if err != nil {
		respondLedgerError(c, err)
		return nil
	}
	return tenant
}

// respondLedgerError maps the core error taxonomy to HTTP statuses. Storage
// errors stay a generic 500; user-visible messages never carry internals.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized for this tenant"})
	case errors.Is(err, ledger.ErrNoTenant):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No school is linked to this account"})
	case errors.Is(err, ledger.ErrDuplicateStructure):
		c.JSON(http.StatusConflict, gin.H{"error": "A fee structure already exists for this grade, term, year and category"})
	case errors.Is(err, ledger.ErrAmountInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
	case errors.Is(err, ledger.ErrTermInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Term is outside the school's configured range"})
	case errors.Is(err, ledger.ErrReferenceRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Non-cash payments require a reference"})
	case errors.Is(err, ledger.ErrTenantMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cross-tenant write rejected"})
	case errors.Is(err, ledger.ErrAdmissionExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "Could not allocate an admission number, try again or enter one manually"})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, intake.ErrChargeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No charge found for this reference"})
	case errors.Is(err, intake.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown subscription plan"})
	case errors.Is(err, intake.ErrGatewayUnreachable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment gateway unreachable, please retry"})
	default:
		var gatewayErr *intake.GatewayError
		if errors.As(err, &gatewayErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": gatewayErr.UserMessage()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// paramID parses a :id path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// recorder returns the acting user's id for journal attribution.
func recorder(c *gin.Context) *uint {
	identity := middleware.Identity(c)
	if identity.UserID == 0 {
		return nil
	}
	id := identity.UserID
	return &id
}
