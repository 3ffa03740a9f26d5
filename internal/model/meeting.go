package model

import "time"

// Meeting a mentor meeting held during a session period, table meetings.
// Only the archival columns are touched by this service; scheduling and
// reporting belong to the meeting subsystem.
type Meeting struct {
	MeetingID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"meeting_id"`
	MentorMUJid    string     `gorm:"column:mentor_mujid;type:varchar(32);not null" json:"mentor_mujid"`
	SessionName    string     `gorm:"type:varchar(32);not null;index"      json:"session_name"`
	SemesterNumber int        `gorm:"not null"                             json:"semester_number"`
	MeetingDate    time.Time  `gorm:"not null"                             json:"meeting_date"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	BaseModel
}

// TableName table name
func (Meeting) TableName() string { return "meetings" }
