// edumanage/internal/handlers/grade_handler.go
package handlers

import (
	"errors"
	"net/http"

	"edumanage/config"
	"edumanage/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListGradesHandler returns every class level of the school, lowest first.
func ListGradesHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}

	var grades []models.Grade
	if err := config.DB.Where("tenant_id = ?", tenant.ID).
		Order("level ASC, name ASC").Find(&grades).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch grades"})
		return
	}
	c.JSON(http.StatusOK, grades)
}

type gradeRequest struct {
	Name  string `json:"name" binding:"required"`
	Level int    `json:"level"`
}

// CreateGradeHandler adds a class level. Names are unique per school.
func CreateGradeHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	grade := models.Grade{TenantID: tenant.ID, Name: req.Name, Level: req.Level}
	if err := config.DB.Create(&grade).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A grade with this name already exists"})
		return
	}
	c.JSON(http.StatusCreated, grade)
}

// UpdateGradeHandler renames a grade or adjusts its ordering level.
func UpdateGradeHandler(c *gin.Context) {
	tenant := requestTenant(c)
	if tenant == nil {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var grade models.Grade
	if err := config.DB.Where("id = ? AND tenant_id = ?", id, tenant.ID).First(&grade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Grade not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch grade"})
		return
	}

	grade.Name = req.Name
	grade.Level = req.Level
	if err := config.DB.Save(&grade).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A grade with this name already exists"})
		return
	}
	c.JSON(http.StatusOK, grade)
}
