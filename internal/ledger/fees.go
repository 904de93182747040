// edumanage/internal/ledger/fees.go
package ledger

import (
	"errors"
	"fmt"

	"edumanage/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FeeStructureRow is the catalog listing shape, joined with grade and
// category labels.
type FeeStructureRow struct {
	ID           uint            `json:"id"`
	GradeID      uint            `json:"gradeId"`
	GradeName    string          `json:"gradeName"`
	Term         int             `json:"term"`
	AcademicYear string          `json:"academicYear"`
	CategoryID   uint            `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Mandatory    bool            `json:"mandatory"`
	Description  string          `json:"description"`
}

// ListFeeStructures returns the tenant's catalog ordered by grade then term.
func ListFeeStructures(db *gorm.DB, tenantID uint) ([]FeeStructureRow, error) {
	var rows []FeeStructureRow
	err := db.Table("fee_structures fs").
		Select(`fs.id, fs.grade_id, g.name AS grade_name, fs.term, fs.academic_year,
			fs.category_id, fc.name AS category_name, fs.amount, fs.mandatory, fs.description`).
		Joins("JOIN grades g ON g.id = fs.grade_id").
		Joins("JOIN fee_categories fc ON fc.id = fs.category_id").
		Where("fs.tenant_id = ? AND fs.deleted_at IS NULL", tenantID).
		Order("g.level ASC, g.name ASC, fs.term ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]FeeStructureRow, 0)
	}
	return rows, nil
}

// FeeStructureInput carries the create fields.
type FeeStructureInput struct {
	GradeID      uint
	Term         int
	AcademicYear string
	CategoryID   uint
	Amount       decimal.Decimal
	Mandatory    bool
	Description  string
}

// CreateFeeStructure inserts one catalog entry, enforcing the
// (grade, term, year, category) uniqueness.
func CreateFeeStructure(db *gorm.DB, tenantID uint, input FeeStructureInput) (*models.FeeStructure, error) {
	if input.Amount.IsNegative() {
		return nil, ErrAmountInvalid
	}
	var tenant models.Tenant
	if err := db.First(&tenant, tenantID).Error; err != nil {
		return nil, err
	}
	if input.Term < 1 || input.Term > tenant.TermsPerYear {
		return nil, ErrTermInvalid
	}

	structure := models.FeeStructure{
		TenantID:     tenantID,
		GradeID:      input.GradeID,
		Term:         input.Term,
		AcademicYear: input.AcademicYear,
		CategoryID:   input.CategoryID,
		Amount:       input.Amount,
		Mandatory:    input.Mandatory,
		Description:  input.Description,
	}
	if err := db.Create(&structure).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateStructure
		}
		return nil, err
	}
	return &structure, nil
}

// DeleteFeeStructure hard-deletes a catalog entry. Prior invoices stay
// untouched.
func DeleteFeeStructure(db *gorm.DB, tenantID, structureID uint) error {
	result := db.Unscoped().
		Where("tenant_id = ?", tenantID).
		Delete(&models.FeeStructure{}, structureID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AmountUpdate is one (structure id, new amount) pair of a bulk update.
type AmountUpdate struct {
	ID     uint            `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

// billingKey identifies one reconciliation unit.
type billingKey struct {
	GradeID      uint
	Term         int
	AcademicYear string
}

// BulkUpdateAmounts applies all amount changes and reconciles the invoices
// of every affected (grade, term, year) inside a single transaction, so a
// failure on any student rolls the whole update back.
func BulkUpdateAmounts(db *gorm.DB, tenantID uint, updates []AmountUpdate) error {
	return db.Transaction(func(tx *gorm.DB) error {
		affected := make(map[billingKey]bool)

		for _, update := range updates {
			if update.Amount.IsNegative() {
				return ErrAmountInvalid
			}
			var structure models.FeeStructure
			if err := tx.Where("tenant_id = ?", tenantID).First(&structure, update.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Model(&structure).Update("amount", update.Amount).Error; err != nil {
				return err
			}
			if structure.Mandatory {
				affected[billingKey{structure.GradeID, structure.Term, structure.AcademicYear}] = true
			}
		}

		for key := range affected {
			if err := reconcileInvoices(tx, tenantID, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// MandatoryTermTotal sums the mandatory catalog amounts of one
// (grade, term, year).
func MandatoryTermTotal(db *gorm.DB, tenantID, gradeID uint, term int, academicYear string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.FeeStructure{}).
		Select("COALESCE(SUM(CAST(amount AS NUMERIC)), 0)").
		Where("tenant_id = ? AND grade_id = ? AND term = ? AND academic_year = ? AND mandatory = ?",
			tenantID, gradeID, term, academicYear, true).
		Scan(&total).Error
	return total, err
}

// reconcileInvoices brings every student of a grade in line with the new
// mandatory term total: the single invoice tagged (term, year) on the
// tuition account is updated to the new total, or created when absent.
// Students are walked in id order so concurrent per-student writers cannot
// deadlock against the sweep. Applying it twice with unchanged structures is
// a no-op.
func reconcileInvoices(tx *gorm.DB, tenantID uint, key billingKey) error {
	total, err := MandatoryTermTotal(tx, tenantID, key.GradeID, key.Term, key.AcademicYear)
	if err != nil {
		return err
	}

	var students []models.Student
	if err := tx.Where("tenant_id = ? AND grade_id = ?", tenantID, key.GradeID).
		Order("id ASC").
		Find(&students).Error; err != nil {
		return err
	}

	for i := range students {
		student := &students[i]
		account, err := AccountFor(tx, tenantID, student.ID, models.StreamTuition)
		if err != nil {
			return err
		}

		var invoice models.Transaction
		err = tx.Where("account_id = ? AND kind = ? AND term = ? AND academic_year = ?",
			account.ID, models.TxInvoice, key.Term, key.AcademicYear).
			First(&invoice).Error
		switch {
		case err == nil:
			if err := tx.Model(&invoice).Updates(map[string]interface{}{
				"amount":      total,
				"description": fmt.Sprintf("Term %d tuition invoice (Updated)", key.Term),
			}).Error; err != nil {
				return err
			}
			if err := RebuildAccount(tx, account.ID); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, err := RecordInvoice(tx, tenantID, account.ID, total, key.Term, key.AcademicYear,
				fmt.Sprintf("Term %d tuition invoice", key.Term)); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

// ReconcileGradeInvoices re-runs invoice reconciliation for one
// (grade, term, year) outside a bulk update, e.g. after a mandatory
// structure was created.
func ReconcileGradeInvoices(db *gorm.DB, tenantID, gradeID uint, term int, academicYear string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return reconcileInvoices(tx, tenantID, billingKey{gradeID, term, academicYear})
	})
}

// FeeCategoryFor returns the tenant's category by name, creating it when
// missing.
func FeeCategoryFor(db *gorm.DB, tenantID uint, name string) (*models.FeeCategory, error) {
	var category models.FeeCategory
	err := db.Where("tenant_id = ? AND name = ?", tenantID, name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	category = models.FeeCategory{TenantID: tenantID, Name: name}
	if err := db.Create(&category).Error; err != nil {
		if isUniqueViolation(err) {
			e := db.Where("tenant_id = ? AND name = ?", tenantID, name).First(&category).Error
			if e == nil {
				return &category, nil
			}
		}
		return nil, err
	}
	return &category, nil
}
