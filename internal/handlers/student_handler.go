// edumanage/internal/handlers/student_handler.go
package handlers

import (
	"net/http"
	"strings"

	"edumanage/config"
	"edumanage/internal/ledger"
	"edumanage/models"

	"github.com/gin-gonic/gin"
)

// ListStudentsHandler returns the tenant's students, paginated, with an
// optional name / admission-number search.
func ListStudentsHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	query := config.DB.Model(&models.Student{}).Where("tenant_id = ?", tenant.ID)
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(admission_number) LIKE ?",
			pattern, pattern, pattern)
	}
	if gradeID := c.Query("gradeId"); gradeID != "" {
		query = query.Where("grade_id = ?", gradeID)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count students"})
		return
	}

	var students []models.Student
	if err := query.Preload("Grade").Scopes(Paginate(c)).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch students"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, students, totalRows))
}

type createStudentRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	MiddleName    string `json:"middleName"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
	GradeID       *uint  `json:"gradeId"`
}

// CreateStudentHandler enrolls a student: admission number allocation and
// stream account materialization happen inside the ledger call.
func CreateStudentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	student, err := ledger.CreateStudent(config.DB, tenant.ID, ledger.StudentInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MiddleName:    req.MiddleName,
		Gender:        req.Gender,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		GradeID:       req.GradeID,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// GetStudentHandler returns one student with the three stream accounts.
// The read path re-ensures the accounts so stale records self-heal.
func GetStudentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var student models.Student
	if err := config.DB.Preload("Grade").
		Where("tenant_id = ?", tenant.ID).First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	if err := ledger.EnsureAccounts(config.DB, &student); err != nil {
		respondLedgerError(c, err)
		return
	}

	var accounts []models.StreamAccount
	if err := config.DB.Where("tenant_id = ? AND student_id = ?", tenant.ID, student.ID).
		Order("stream ASC").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"student": student, "accounts": accounts})
}

type updateStudentRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	MiddleName    string `json:"middleName"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
	GradeID       *uint  `json:"gradeId"`
	Active        *bool  `json:"active"`
}

// UpdateStudentHandler edits the mutable student fields. The admission
// number never changes after allocation.
func UpdateStudentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var student models.Student
	if err := config.DB.Where("tenant_id = ?", tenant.ID).First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.MiddleName != "" {
		updates["middle_name"] = req.MiddleName
	}
	if req.Gender != "" {
		updates["gender"] = req.Gender
	}
	if req.GuardianName != "" {
		updates["guardian_name"] = req.GuardianName
	}
	if req.GuardianPhone != "" {
		updates["guardian_phone"] = req.GuardianPhone
	}
	if req.GradeID != nil {
		updates["grade_id"] = *req.GradeID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := config.DB.Model(&student).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
			return
		}
	}
	c.JSON(http.StatusOK, student)
}

// AdvanceTermHandler moves a student to their next term, wrapping to term 1
// at the end of the year. Student terms advance independently of the
// calendar.
func AdvanceTermHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var student models.Student
	if err := config.DB.Where("tenant_id = ?", tenant.ID).First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	next := student.CurrentTerm + 1
	if next > tenant.TermsPerYear {
		next = 1
	}
	if err := config.DB.Model(&student).Update("current_term", next).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance term"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentTerm": next})
}

// DeleteStudentHandler soft-deletes a student. Financial history stays on
// the books.
func DeleteStudentHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result := config.DB.Where("tenant_id = ?", tenant.ID).Delete(&models.Student{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}
