package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AcademicSession one academic year ("2024-2025") and the periods that
// belong to it, table academic_sessions.
//
// At most one row has IsCurrent = true; a partial unique index enforces it.
// ArchivedAt is written once, when the year stops being current.
type AcademicSession struct {
	AcademicSessionID string          `gorm:"type:uuid;primaryKey"                                  json:"academic_session_id"`
	StartYear         int             `gorm:"not null;uniqueIndex:idx_academic_sessions_years"      json:"start_year"`
	EndYear           int             `gorm:"not null;uniqueIndex:idx_academic_sessions_years"      json:"end_year"`
	IsCurrent         bool            `gorm:"not null;default:false"                                json:"is_current"`
	CurrentPeriod     string          `gorm:"type:varchar(32);not null;default:''"                  json:"current_period"`
	ArchivedAt        *time.Time      `json:"archived_at,omitempty"`
	Sessions          []SessionPeriod `gorm:"foreignKey:AcademicSessionID;references:AcademicSessionID" json:"sessions"`
	BaseModel
}

// TableName table name
func (AcademicSession) TableName() string { return "academic_sessions" }

// BeforeCreate assigns the primary key.
func (s *AcademicSession) BeforeCreate(_ *gorm.DB) error {
	if s.AcademicSessionID == "" {
		s.AcademicSessionID = uuid.NewString()
	}
	return nil
}

// Period returns the embedded period called name, or nil.
func (s *AcademicSession) Period(name string) *SessionPeriod {
	for i := range s.Sessions {
		if s.Sessions[i].Name == name {
			return &s.Sessions[i]
		}
	}
	return nil
}

// SessionPeriod a six-month period inside an academic year, e.g.
// "JULY-DECEMBER 2024", table session_periods.
type SessionPeriod struct {
	SessionPeriodID   string     `gorm:"type:uuid;primaryKey"                json:"session_period_id"`
	AcademicSessionID string     `gorm:"type:uuid;not null;index"            json:"academic_session_id"`
	Name              string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"name"`
	Semesters         IntArray   `gorm:"type:int[];not null"                 json:"semesters"`
	ArchivedAt        *time.Time `json:"archived_at,omitempty"`
	BaseModel
}

// TableName table name
func (SessionPeriod) TableName() string { return "session_periods" }

// BeforeCreate assigns the primary key.
func (p *SessionPeriod) BeforeCreate(_ *gorm.DB) error {
	if p.SessionPeriodID == "" {
		p.SessionPeriodID = uuid.NewString()
	}
	return nil
}
