package dto

// ── academic session DTOs ──

// SemesterInput one semester of a period in a create request
type SemesterInput struct {
	SemesterNumber int `json:"semester_number" binding:"required,min=1,max=8"`
}

// SessionPeriodInput one period of a create request
type SessionPeriodInput struct {
	Name      string          `json:"name"      binding:"required,period_name"` // "JULY-DECEMBER 2025"
	Semesters []SemesterInput `json:"semesters" binding:"omitempty,dive"`
}

// CreateAcademicSessionRequest create an academic year or add periods to it
type CreateAcademicSessionRequest struct {
	StartYear int                  `json:"start_year" binding:"required,min=2000,max=9998"`
	EndYear   int                  `json:"end_year"   binding:"required,min=2001,max=9999"`
	Sessions  []SessionPeriodInput `json:"sessions"   binding:"required,min=1,max=2,dive"`
}

// YearRange identifies an academic year by its two calendar years
type YearRange struct {
	StartYear int `json:"start_year" binding:"required,min=2000,max=9998"`
	EndYear   int `json:"end_year"   binding:"required,min=2001,max=9999"`
}

// ArchiveAcademicSessionRequest archive one academic year
type ArchiveAcademicSessionRequest = YearRange

// UpcomingSessionInput the period a rollover promotes
type UpcomingSessionInput struct {
	StartYear   int    `json:"start_year"  binding:"required,min=2000,max=9998"`
	EndYear     int    `json:"end_year"    binding:"required,min=2001,max=9999"`
	SessionName string `json:"sessionName" binding:"required,period_name"`
}

// RolloverRequest promote the upcoming period to current
type RolloverRequest struct {
	CurrentSession  YearRange            `json:"currentSession"`
	UpcomingSession UpcomingSessionInput `json:"upcomingSession"`
}

// SessionPeriodResponse one period
type SessionPeriodResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Semesters  []SemesterOutput `json:"semesters"`
	IsCurrent  bool             `json:"is_current"`
	ArchivedAt *string          `json:"archived_at"`
}

// SemesterOutput one semester of a period
type SemesterOutput struct {
	SemesterNumber int `json:"semester_number"`
}

// AcademicSessionResponse one academic year
type AcademicSessionResponse struct {
	ID            string                  `json:"id"`
	AcademicYear  string                  `json:"academic_year"`
	StartYear     int                     `json:"start_year"`
	EndYear       int                     `json:"end_year"`
	IsCurrent     bool                    `json:"is_current"`
	CurrentPeriod string                  `json:"current_period,omitempty"`
	ArchivedAt    *string                 `json:"archived_at"`
	Sessions      []SessionPeriodResponse `json:"sessions"`
	CreatedAt     string                  `json:"created_at"`
	UpdatedAt     string                  `json:"updated_at"`
}

// PeriodResponse a computed period and whether it is persisted
type PeriodResponse struct {
	AcademicYear string `json:"academic_year"`
	SessionName  string `json:"session_name"`
	Semesters    []int  `json:"semesters"`
	Exists       bool   `json:"exists"`
}

// PeriodStatusResponse GET /academic-sessions/periods
type PeriodStatusResponse struct {
	ReferenceDate string         `json:"reference_date"`
	Current       PeriodResponse `json:"current"`
	Upcoming      PeriodResponse `json:"upcoming"`
}

// ArchiveResponse result of an explicit archive
type ArchiveResponse struct {
	AcademicYear     string `json:"academic_year"`
	ArchivedAt       string `json:"archived_at"`
	PeriodsArchived  int64  `json:"periods_archived"`
	MeetingsArchived int64  `json:"meetings_archived"`
}

// RolloverResponse result of a rollover
type RolloverResponse struct {
	PreviousSession   string                   `json:"previous_session"`
	CurrentSession    string                   `json:"current_session"`
	AcademicYear      string                   `json:"academic_year"`
	MeetingsArchived  int64                    `json:"meetings_archived"`
	MenteesAdvanced   int64                    `json:"mentees_advanced"`   // semester incremented
	MenteesGraduated  int64                    `json:"mentees_graduated"`  // already at the final semester
	MenteesReassigned int64                    `json:"mentees_reassigned"` // academic year/session rewritten
	Current           *AcademicSessionResponse `json:"current"`
}
