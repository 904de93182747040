// edumanage/internal/reporting/arrears.go
package reporting

import (
	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ArrearsRow is one indebted student in the arrears listing.
type ArrearsRow struct {
	StudentID       uint              `json:"studentId"`
	AdmissionNumber string            `json:"admissionNumber"`
	StudentName     string            `json:"studentName"`
	GradeID         *uint             `json:"gradeId"`
	GradeName       string            `json:"gradeName"`
	TotalBilled     decimal.Decimal   `json:"totalBilled"`
	TotalPaid       decimal.Decimal   `json:"totalPaid"`
	Balance         decimal.Decimal   `json:"balance"`
	TermlyFees      []decimal.Decimal `json:"termlyFees"`
}

// ArrearsReport lists students whose tuition balance exceeds the threshold,
// optionally narrowed to one grade, worst debtor first. Each row carries the
// grade's termly mandatory fee breakdown alongside what was actually paid.
func ArrearsReport(db *gorm.DB, tenant *models.Tenant, threshold decimal.Decimal, gradeID *uint) ([]ArrearsRow, error) {
	query := db.Table("stream_accounts sa").
		Select(`sa.student_id,
			s.admission_number,
			(s.first_name || ' ' || s.last_name) AS student_name,
			s.grade_id,
			COALESCE(g.name, '') AS grade_name,
			sa.total_billed,
			sa.total_paid,
			sa.balance`).
		Joins("JOIN students s ON s.id = sa.student_id").
		Joins("LEFT JOIN grades g ON g.id = s.grade_id").
		Where("sa.tenant_id = ? AND sa.stream = ? AND sa.deleted_at IS NULL AND s.deleted_at IS NULL",
			tenant.ID, models.StreamTuition).
		Where("CAST(sa.balance AS NUMERIC) > ?", threshold)
	if gradeID != nil {
		query = query.Where("s.grade_id = ?", *gradeID)
	}

	var rows []ArrearsRow
	if err := query.Order("CAST(sa.balance AS NUMERIC) DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		return make([]ArrearsRow, 0), nil
	}

	breakdown, err := termlyFeeBreakdown(db, tenant)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].GradeID != nil {
			rows[i].TermlyFees = breakdown[*rows[i].GradeID]
		}
		if rows[i].TermlyFees == nil {
			rows[i].TermlyFees = zeroTerms(tenant.TermsPerYear)
		}
	}
	return rows, nil
}

// termlyFeeBreakdown maps grade id → mandatory total per term for the
// tenant's current academic year.
func termlyFeeBreakdown(db *gorm.DB, tenant *models.Tenant) (map[uint][]decimal.Decimal, error) {
	var totals []struct {
		GradeID uint
		Term    int
		Total   decimal.Decimal
	}
	err := db.Model(&models.FeeStructure{}).
		Select("grade_id, term, COALESCE(SUM(CAST(amount AS NUMERIC)), 0) AS total").
		Where("tenant_id = ? AND academic_year = ? AND mandatory = ?",
			tenant.ID, tenant.CurrentAcademicYear, true).
		Group("grade_id, term").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	breakdown := make(map[uint][]decimal.Decimal)
	for _, row := range totals {
		if row.Term < 1 || row.Term > tenant.TermsPerYear {
			continue
		}
		if breakdown[row.GradeID] == nil {
			breakdown[row.GradeID] = zeroTerms(tenant.TermsPerYear)
		}
		breakdown[row.GradeID][row.Term-1] = row.Total
	}
	return breakdown, nil
}

func zeroTerms(terms int) []decimal.Decimal {
	fees := make([]decimal.Decimal, terms)
	for i := range fees {
		fees[i] = decimal.Zero
	}
	return fees
}
