// edumanage/internal/reporting/dashboard.go
package reporting

import (
	"fmt"

	"edumanage/models"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultTargetFormula is the annual revenue expectation per enrollment:
// the per-term cost times the tenant's configured term count. Kept as a
// formula (not a literal ×3) so schools with a different calendar plug in
// their own expression.
const DefaultTargetFormula = "cost * terms"

// StreamSummary is one revenue stream's dashboard card.
type StreamSummary struct {
	Stream         models.Stream   `json:"stream"`
	Target         decimal.Decimal `json:"target"`
	Collected      decimal.Decimal `json:"collected"`
	Arrears        decimal.Decimal `json:"arrears"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate float64         `json:"collectionRate"`
}

// DashboardSummary composes all three streams plus a grand total.
type DashboardSummary struct {
	Streams []StreamSummary `json:"streams"`
	Total   StreamSummary   `json:"total"`
}

// BuildDashboard assembles the tenant's cross-stream dashboard. Targets are
// forward-looking annual expectations; arrears is present billed-but-unpaid,
// which is why Outstanding (target − collected, floored at zero) and Arrears
// deliberately differ.
func BuildDashboard(db *gorm.DB, tenant *models.Tenant) (*DashboardSummary, error) {
	tuitionTarget, err := tuitionTarget(db, tenant)
	if err != nil {
		return nil, err
	}
	transportTarget, err := transportTarget(db, tenant)
	if err != nil {
		return nil, err
	}
	mealTarget, err := mealTarget(db, tenant)
	if err != nil {
		return nil, err
	}

	targets := map[models.Stream]decimal.Decimal{
		models.StreamTuition:   tuitionTarget,
		models.StreamTransport: transportTarget,
		models.StreamMeal:      mealTarget,
	}

	summary := &DashboardSummary{Total: StreamSummary{Stream: "Total"}}
	for _, stream := range models.Streams {
		collected, err := collectedForStream(db, tenant.ID, stream)
		if err != nil {
			return nil, err
		}
		arrears, err := arrearsForStream(db, tenant.ID, stream)
		if err != nil {
			return nil, err
		}

		card := StreamSummary{
			Stream:      stream,
			Target:      targets[stream],
			Collected:   collected,
			Arrears:     arrears,
			Outstanding: outstanding(targets[stream], collected),
		}
		card.CollectionRate = collectionRate(card.Target, card.Collected)
		summary.Streams = append(summary.Streams, card)

		summary.Total.Target = summary.Total.Target.Add(card.Target)
		summary.Total.Collected = summary.Total.Collected.Add(card.Collected)
		summary.Total.Arrears = summary.Total.Arrears.Add(card.Arrears)
	}

	summary.Total.Outstanding = outstanding(summary.Total.Target, summary.Total.Collected)
	summary.Total.CollectionRate = collectionRate(summary.Total.Target, summary.Total.Collected)
	return summary, nil
}

// tuitionTarget = Σ over students of
// (admission fee + every term's mandatory total for the student's grade).
func tuitionTarget(db *gorm.DB, tenant *models.Tenant) (decimal.Decimal, error) {
	// Mandatory totals per (grade, term) for the current year, one query.
	var totals []struct {
		GradeID uint
		Term    int
		Total   decimal.Decimal
	}
	err := db.Model(&models.FeeStructure{}).
		Select("grade_id, term, COALESCE(SUM(CAST(amount AS NUMERIC)), 0) AS total").
		Where("tenant_id = ? AND academic_year = ? AND mandatory = ?", tenant.ID, tenant.CurrentAcademicYear, true).
		Group("grade_id, term").
		Scan(&totals).Error
	if err != nil {
		return decimal.Zero, err
	}

	perGrade := make(map[uint]decimal.Decimal)
	for _, row := range totals {
		if row.Term >= 1 && row.Term <= tenant.TermsPerYear {
			perGrade[row.GradeID] = perGrade[row.GradeID].Add(row.Total)
		}
	}

	var counts []struct {
		GradeID *uint
		N       int64
	}
	err = db.Model(&models.Student{}).
		Select("grade_id, COUNT(*) AS n").
		Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Group("grade_id").
		Scan(&counts).Error
	if err != nil {
		return decimal.Zero, err
	}

	target := decimal.Zero
	for _, row := range counts {
		students := decimal.NewFromInt(row.N)
		target = target.Add(tenant.AdmissionFee.Mul(students))
		if row.GradeID != nil {
			target = target.Add(perGrade[*row.GradeID].Mul(students))
		}
	}
	return target, nil
}

// transportTarget = Σ over active assignments of targetFormula(route cost).
func transportTarget(db *gorm.DB, tenant *models.Tenant) (decimal.Decimal, error) {
	var rows []struct {
		Cost decimal.Decimal
		N    int64
	}
	err := db.Table("transport_assignments ta").
		Select("tr.cost_per_term AS cost, COUNT(*) AS n").
		Joins("JOIN transport_routes tr ON tr.id = ta.route_id").
		Where("ta.tenant_id = ? AND ta.active = ? AND ta.deleted_at IS NULL", tenant.ID, true).
		Group("tr.cost_per_term").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sumAnnualized(rows, tenant.TermsPerYear)
}

// mealTarget = Σ over active subscriptions of targetFormula(plan cost).
func mealTarget(db *gorm.DB, tenant *models.Tenant) (decimal.Decimal, error) {
	var rows []struct {
		Cost decimal.Decimal
		N    int64
	}
	err := db.Table("meal_subscriptions ms").
		Select("mp.cost_per_term AS cost, COUNT(*) AS n").
		Joins("JOIN meal_plans mp ON mp.id = ms.plan_id").
		Where("ms.tenant_id = ? AND ms.active = ? AND ms.deleted_at IS NULL", tenant.ID, true).
		Group("mp.cost_per_term").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sumAnnualized(rows, tenant.TermsPerYear)
}

func sumAnnualized(rows []struct {
	Cost decimal.Decimal
	N    int64
}, terms int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, row := range rows {
		annual, err := EvaluateTargetFormula(DefaultTargetFormula, row.Cost, terms)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(annual.Mul(decimal.NewFromInt(row.N)))
	}
	return total, nil
}

// EvaluateTargetFormula computes the annual expectation for one enrollment
// from a per-term cost. The formula sees the parameters "cost" and "terms".
func EvaluateTargetFormula(formula string, cost decimal.Decimal, terms int) (decimal.Decimal, error) {
	expression, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad target formula %q: %w", formula, err)
	}

	parameters := map[string]interface{}{
		"cost":  cost.InexactFloat64(),
		"terms": float64(terms),
	}
	result, err := expression.Evaluate(parameters)
	if err != nil {
		return decimal.Zero, fmt.Errorf("target formula %q: %w", formula, err)
	}
	value, ok := result.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("target formula %q did not yield a number", formula)
	}
	return decimal.NewFromFloat(value).Round(2), nil
}

func collectedForStream(db *gorm.DB, tenantID uint, stream models.Stream) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Table("transactions t").
		Select("COALESCE(SUM(CAST(t.amount AS NUMERIC)), 0)").
		Joins("JOIN stream_accounts sa ON sa.id = t.account_id").
		Where("t.tenant_id = ? AND t.kind = ? AND sa.stream = ? AND t.deleted_at IS NULL", tenantID, models.TxPayment, stream).
		Scan(&total).Error
	return total, err
}

func arrearsForStream(db *gorm.DB, tenantID uint, stream models.Stream) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.StreamAccount{}).
		Select("COALESCE(SUM(CAST(balance AS NUMERIC)), 0)").
		Where("tenant_id = ? AND stream = ? AND CAST(balance AS NUMERIC) > 0", tenantID, stream).
		Scan(&total).Error
	return total, err
}

func outstanding(target, collected decimal.Decimal) decimal.Decimal {
	diff := target.Sub(collected)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

func collectionRate(target, collected decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	rate, _ := collected.Div(target).Float64()
	return rate
}
