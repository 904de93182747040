// edumanage/internal/ledger/admission.go
package ledger

import (
	"fmt"
	"strings"
	"time"

	"edumanage/models"

	"gorm.io/gorm"
)

// admissionRetries bounds how many fresh counter values are tried when a
// concurrent insert collides on the admission-number unique index.
const admissionRetries = 5

// StudentInput carries the fields a new student enrolls with.
type StudentInput struct {
	FirstName     string
	LastName      string
	MiddleName    string
	Gender        string
	GuardianName  string
	GuardianPhone string
	GradeID       *uint
}

// CreateStudent inserts a student with a freshly allocated admission number
// and materializes the three stream accounts. A unique-index collision on the
// admission number gets a fresh counter value on the next attempt.
func CreateStudent(db *gorm.DB, tenantID uint, input StudentInput) (*models.Student, error) {
	var student *models.Student

	for attempt := 0; attempt < admissionRetries; attempt++ {
		// The counter bump commits on its own so a failed insert can never
		// hand the same number to a retry.
		number, err := NextAdmissionNumber(db, tenantID, input.GradeID)
		if err != nil {
			return nil, err
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			s := models.Student{
				TenantID:        tenantID,
				GradeID:         input.GradeID,
				AdmissionNumber: number,
				FirstName:       input.FirstName,
				LastName:        input.LastName,
				MiddleName:      input.MiddleName,
				Gender:          input.Gender,
				GuardianName:    input.GuardianName,
				GuardianPhone:   input.GuardianPhone,
				CurrentTerm:     1,
			}
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
			if err := EnsureAccounts(tx, &s); err != nil {
				return err
			}
			student = &s
			return nil
		})
		if err == nil {
			return student, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
	}

	return nil, ErrAdmissionExhausted
}

// NextAdmissionNumber bumps the tenant's admission counter atomically and
// expands the tenant's format template with the new value. The bump is a
// single UPDATE .. RETURNING so concurrent allocators each observe a
// distinct counter.
func NextAdmissionNumber(tx *gorm.DB, tenantID uint, gradeID *uint) (string, error) {
	var counter int
	err := tx.Raw(
		"UPDATE tenants SET admission_counter = admission_counter + 1 WHERE id = ? RETURNING admission_counter",
		tenantID,
	).Scan(&counter).Error
	if err != nil {
		return "", err
	}
	if counter == 0 {
		return "", ErrNotFound
	}

	var tenant models.Tenant
	if err := tx.First(&tenant, tenantID).Error; err != nil {
		return "", err
	}

	gradeName := ""
	if gradeID != nil {
		var grade models.Grade
		if err := tx.First(&grade, *gradeID).Error; err == nil {
			gradeName = grade.Name
		}
	}

	return ExpandAdmissionFormat(tenant.AdmissionFormat, tenant.Code, gradeName, counter, time.Now()), nil
}

// ExpandAdmissionFormat substitutes the template variables
// {SCHOOL_CODE}, {YEAR}, {COUNTER:04d} (any zero-pad width) and {GRADE}.
func ExpandAdmissionFormat(format, schoolCode, gradeName string, counter int, now time.Time) string {
	out := format
	out = strings.ReplaceAll(out, "{SCHOOL_CODE}", schoolCode)
	out = strings.ReplaceAll(out, "{YEAR}", fmt.Sprintf("%d", now.Year()))
	out = strings.ReplaceAll(out, "{GRADE}", gradeName)

	// {COUNTER} or {COUNTER:0Nd}
	for {
		start := strings.Index(out, "{COUNTER")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], "}")
		if end < 0 {
			break
		}
		token := out[start : start+end+1]
		verb := "%d"
		if colon := strings.Index(token, ":"); colon >= 0 {
			verb = "%" + strings.TrimSuffix(token[colon+1:], "}")
		}
		out = strings.Replace(out, token, fmt.Sprintf(verb, counter), 1)
	}
	return out
}

// isUniqueViolation matches the duplicate-key error text of both Postgres
// and the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
