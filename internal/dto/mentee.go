package dto

// ── mentee DTOs ──

// MenteeListRequest GET /mentees query
type MenteeListRequest struct {
	PaginationRequest
	AcademicYear    string `form:"academic_year"    binding:"omitempty,len=9"`
	AcademicSession string `form:"academic_session" binding:"omitempty,max=32"`
	Semester        int    `form:"semester"         binding:"omitempty,min=1,max=8"`
}

// MenteeResponse one mentee
type MenteeResponse struct {
	ID              string `json:"id"`
	MUJid           string `json:"mujid"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Semester        int    `json:"semester"`
	AcademicYear    string `json:"academic_year"`
	AcademicSession string `json:"academic_session"`
	MentorMUJid     string `json:"mentor_mujid,omitempty"`
}

// ImportMenteeRow one parsed spreadsheet row
type ImportMenteeRow struct {
	Row             int    `json:"row"`
	MUJid           string `json:"mujid"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Semester        string `json:"semester"`
	AcademicYear    string `json:"academic_year"`
	AcademicSession string `json:"academic_session"`
	MentorMUJid     string `json:"mentor_mujid,omitempty"`
}

// ImportMenteeResponse import or preview result
type ImportMenteeResponse struct {
	Total   int                 `json:"total"`
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
	Preview bool                `json:"preview"`
	Rows    []ImportMenteeRow   `json:"rows,omitempty"` // preview only
	Errors  []ImportMenteeError `json:"errors,omitempty"`
}

// ImportMenteeError why a row was rejected
type ImportMenteeError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
