package academic

import "mentorlink/backend/internal/model"

// Existence reports which of the computed periods are already persisted.
type Existence struct {
	CurrentExists  bool `json:"current_exists"`
	UpcomingExists bool `json:"upcoming_exists"`
}

// ResolveExistence checks periods against the persisted academic sessions.
// Names are compared exactly; callers normalize free-text input first.
func ResolveExistence(periods *Periods, sessions []model.AcademicSession) Existence {
	var ex Existence
	if periods == nil {
		return ex
	}
	for i := range sessions {
		for _, p := range sessions[i].Sessions {
			switch p.Name {
			case periods.Current.SessionName:
				ex.CurrentExists = true
			case periods.Upcoming.SessionName:
				ex.UpcomingExists = true
			}
		}
	}
	return ex
}
