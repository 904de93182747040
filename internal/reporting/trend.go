// edumanage/internal/reporting/trend.go
package reporting

import (
	"time"

	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TrendPoint is one month of collected payments.
type TrendPoint struct {
	Month string          `json:"month"` // "2024-01"
	Total decimal.Decimal `json:"total"`
}

// PaymentTrend returns the tenant's payments bucketed by month over the
// last `months` months, chronologically ascending. The series is dense:
// months with no payments appear with a zero total.
func PaymentTrend(db *gorm.DB, tenantID uint, months int, now time.Time) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -(months - 1), 0)

	var rows []struct {
		CreatedAt time.Time
		Amount    decimal.Decimal
	}
	err := db.Model(&models.Transaction{}).
		Select("created_at, amount").
		Where("tenant_id = ? AND kind = ? AND created_at >= ?", tenantID, models.TxPayment, start).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Bucketing happens here rather than in SQL so the query stays
	// portable across the production and test dialects.
	buckets := make(map[string]decimal.Decimal, months)
	for _, row := range rows {
		key := row.CreatedAt.In(now.Location()).Format("2006-01")
		buckets[key] = buckets[key].Add(row.Amount)
	}

	series := make([]TrendPoint, 0, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		series = append(series, TrendPoint{Month: month, Total: buckets[month]})
	}
	return series, nil
}
