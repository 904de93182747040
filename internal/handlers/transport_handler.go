// edumanage/internal/handlers/transport_handler.go
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

// ListTransportRoutesHandler returns the school's shuttle routes.
func ListTransportRoutesHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	var routes []models.TransportRoute
	if err := config.DB.Where("tenant_id = ?", tenant.ID).
		Order("name ASC").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch routes"})
		return
	}
	c.JSON(http.StatusOK, routes)
}

type transportRouteRequest struct {
	Name        string          `json:"name" binding:"required"`
	CostPerTerm decimal.Decimal `json:"costPerTerm"`
}

// CreateTransportRouteHandler registers a route with its per-term cost.
func CreateTransportRouteHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req transportRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if req.CostPerTerm.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cost per term cannot be negative"})
		return
	}

	route := models.TransportRoute{TenantID: tenant.ID, Name: req.Name, CostPerTerm: req.CostPerTerm}
	if err := config.DB.Create(&route).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A route with this name already exists"})
		return
	}
	c.JSON(http.StatusCreated, route)
}

type transportAssignRequest struct {
	StudentID uint  `json:"studentId" binding:"required"`
	RouteID   uint  `json:"routeId" binding:"required"`
	Active    *bool `json:"active"`
}

// AssignTransportHandler subscribes a student to a route, replacing any
// previous assignment.
func AssignTransportHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req transportAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var route models.TransportRoute
	if err := config.DB.Where("id = ? AND tenant_id = ?", req.RouteID, tenant.ID).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
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

	var assignment models.TransportAssignment
	err := config.DB.Where("tenant_id = ? AND student_id = ?", tenant.ID, req.StudentID).First(&assignment).Error
	switch {
	case err == nil:
		assignment.RouteID = req.RouteID
		assignment.Active = &active
		err = config.DB.Save(&assignment).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment = models.TransportAssignment{
			TenantID:  tenant.ID,
			StudentID: req.StudentID,
			RouteID:   req.RouteID,
			Active:    &active,
		}
		err = config.DB.Create(&assignment).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save assignment"})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// BillTransportTermHandler raises the current term's transport invoices
// for every active assignment. Safe to repeat: existing term invoices are
// updated in place rather than duplicated.
func BillTransportTermHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	billed, err := ledger.BillTransportTerm(config.DB, tenant.ID, tenant.CurrentTerm, tenant.CurrentAcademicYear)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Transport billing complete",
		"billed":  billed,
		"term":    tenant.CurrentTerm,
		"year":    tenant.CurrentAcademicYear,
	})
}
