// edumanage/internal/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"edumanage/config"
	"edumanage/internal/reporting"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dashboardCacheTTL = 60 * time.Second

// DashboardHandler returns the per-stream financial summary. The result
// is cached in Redis for a minute per tenant because the target queries
// touch every fee structure and account.
func DashboardHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	cacheKey := fmt.Sprintf("dashboard:%d", tenant.ID)
	if config.RDB != nil {
		if cached, err := config.RDB.Get(config.Ctx, cacheKey).Result(); err == nil {
			var summary reporting.DashboardSummary
			if json.Unmarshal([]byte(cached), &summary) == nil {
				c.JSON(http.StatusOK, summary)
				return
			}
		}
	}

	summary, err := reporting.BuildDashboard(config.DB, tenant)
	if err != nil {
		slog.Error("Failed to build dashboard", "tenantId", tenant.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	if config.RDB != nil {
		if data, err := json.Marshal(summary); err == nil {
			config.RDB.Set(config.Ctx, cacheKey, data, dashboardCacheTTL)
		}
	}
	c.JSON(http.StatusOK, summary)
}

// PaymentTrendHandler returns a dense month-by-month payment series.
// Defaults to the last six months.
func PaymentTrendHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	months := 6
	if raw := c.Query("months"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 24 {
			months = n
		}
	}

	points, err := reporting.PaymentTrend(config.DB, tenant.ID, months, time.Now())
	if err != nil {
		slog.Error("Failed to build payment trend", "tenantId", tenant.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build payment trend"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trend": points})
}

func arrearsParams(c *gin.Context) (decimal.Decimal, *uint) {
	threshold := decimal.Zero
	if raw := c.Query("threshold"); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil && d.Sign() >= 0 {
			threshold = d
		}
	}
	var gradeID *uint
	if raw := c.Query("gradeId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			v := uint(id)
			gradeID = &v
		}
	}
	return threshold, gradeID
}

// ArrearsHandler lists students whose balance exceeds the threshold,
// largest debt first.
func ArrearsHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	threshold, gradeID := arrearsParams(c)

	rows, err := reporting.ArrearsReport(config.DB, tenant, threshold, gradeID)
	if err != nil {
		slog.Error("Failed to build arrears report", "tenantId", tenant.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build arrears report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"arrears": rows, "count": len(rows)})
}

// ExportArrearsHandler streams the arrears report as an xlsx workbook.
func ExportArrearsHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	threshold, gradeID := arrearsParams(c)

	rows, err := reporting.ArrearsReport(config.DB, tenant, threshold, gradeID)
	if err != nil {
		slog.Error("Failed to build arrears report", "tenantId", tenant.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build arrears report"})
		return
	}

	f, err := reporting.ArrearsWorkbook(rows)
	if err != nil {
		slog.Error("Failed to build arrears workbook", "tenantId", tenant.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build export"})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("arrears_%s_%s.xlsx", tenant.Code, time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(c.Writer); err != nil {
		slog.Error("Failed to stream arrears workbook", "tenantId", tenant.ID, "error", err)
	}
}
