// edumanage/internal/handlers/tenant_handler.go
package handlers

import (
	"net/http"

	"edumanage/config"
	"edumanage/internal/ledger"
	"edumanage/internal/middleware"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	AcademicYear string `json:"academicYear"`
}

// SignupTenantHandler registers a new school owned by the calling user,
// starting its 30-day trial.
func SignupTenantHandler(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	identity := middleware.Identity(c)
	if identity.UserID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	tenant, err := ledger.SignupTenant(config.DB, ledger.SignupInput{
		Name:         req.Name,
		Code:         req.Code,
		OwnerID:      identity.UserID,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// GetTenantHandler returns the resolved tenant with its subscription state.
func GetTenantHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// SuspendTenantHandler and ActivateTenantHandler flip a school's
// subscription status (super-admin only, enforced at the route).
func SuspendTenantHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ledger.SuspendTenant(config.DB, id); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant suspended"})
}

func ActivateTenantHandler(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ledger.ActivateTenant(config.DB, id); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant activated"})
}

type periodRequest struct {
	Term         int    `json:"term" binding:"required"`
	AcademicYear string `json:"academicYear"`
}

// SetPeriodHandler moves the school to a new current term / academic year.
func SetPeriodHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := ledger.SetCurrentPeriod(config.DB, tenant.ID, req.Term, req.AcademicYear); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Period updated"})
}

type portalPasswordRequest struct {
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetPortalPasswordHandler stores one role's shared portal password.
func SetPortalPasswordHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req portalPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := ledger.SetPortalPassword(config.DB, tenant.ID, req.Role, req.Password); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Portal password updated"})
}
