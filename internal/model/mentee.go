package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mentee a student in the mentorship programme, table mentees.
// AcademicYear/AcademicSession name the period the semester counter refers to.
type Mentee struct {
	MenteeID        string  `gorm:"type:uuid;primaryKey"                  json:"mentee_id"`
	MUJid           string  `gorm:"column:mujid;type:varchar(32);not null;uniqueIndex" json:"mujid"`
	Name            string  `gorm:"type:varchar(100);not null"            json:"name"`
	Email           string  `gorm:"type:varchar(255);not null"            json:"email"`
	Semester        int     `gorm:"not null;check:semester BETWEEN 1 AND 8" json:"semester"`
	AcademicYear    string  `gorm:"type:varchar(9);not null;index:idx_mentees_cohort"  json:"academic_year"`
	AcademicSession string  `gorm:"type:varchar(32);not null;index:idx_mentees_cohort" json:"academic_session"`
	MentorMUJid     *string `gorm:"column:mentor_mujid;type:varchar(32)"  json:"mentor_mujid,omitempty"`
	BaseModel
}

// TableName table name
func (Mentee) TableName() string { return "mentees" }

// BeforeCreate assigns the primary key.
func (m *Mentee) BeforeCreate(_ *gorm.DB) error {
	if m.MenteeID == "" {
		m.MenteeID = uuid.NewString()
	}
	return nil
}
