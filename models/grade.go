// edumanage/models/grade.go

package models

import "gorm.io/gorm"

// Grade is a class level within one school (e.g. "Grade 5").
type Grade struct {
	gorm.Model
	TenantID uint   `json:"tenantId" gorm:"not null;uniqueIndex:idx_grade_name"`
	Name     string `json:"name" gorm:"not null;uniqueIndex:idx_grade_name"`
	Level    int    `json:"level" gorm:"not null;default:0"`
}
