package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"mentorlink/backend/internal/model"
	"mentorlink/backend/internal/repository"
	pkgerrors "mentorlink/backend/pkg/errors"
)

// failures injects errors by method name.
type failures map[string]error

func (f failures) check(method string) error {
	if f == nil {
		return nil
	}
	return f[method]
}

// ── Mock AcademicSessionRepository ──

type mockAcademicSessionRepo struct {
	sessions map[string]*model.AcademicSession
	fail     failures
	calls    []string
}

func newMockAcademicSessionRepo() *mockAcademicSessionRepo {
	return &mockAcademicSessionRepo{sessions: make(map[string]*model.AcademicSession), fail: failures{}}
}

// add stores a year record; period ids default to "p-<name>".
func (m *mockAcademicSessionRepo) add(s *model.AcademicSession) *model.AcademicSession {
	if s.AcademicSessionID == "" {
		s.AcademicSessionID = fmt.Sprintf("as-%d", s.StartYear)
	}
	for i := range s.Sessions {
		if s.Sessions[i].SessionPeriodID == "" {
			s.Sessions[i].SessionPeriodID = "p-" + s.Sessions[i].Name
		}
		s.Sessions[i].AcademicSessionID = s.AcademicSessionID
	}
	m.sessions[s.AcademicSessionID] = s
	return s
}

func (m *mockAcademicSessionRepo) enter(method string) error {
	m.calls = append(m.calls, method)
	return m.fail.check(method)
}

func cloneSession(s *model.AcademicSession) *model.AcademicSession {
	c := *s
	c.Sessions = append([]model.SessionPeriod(nil), s.Sessions...)
	return &c
}

func (m *mockAcademicSessionRepo) period(id string) *model.SessionPeriod {
	for _, s := range m.sessions {
		for i := range s.Sessions {
			if s.Sessions[i].SessionPeriodID == id {
				return &s.Sessions[i]
			}
		}
	}
	return nil
}

func (m *mockAcademicSessionRepo) currentCount() int {
	n := 0
	for _, s := range m.sessions {
		if s.IsCurrent {
			n++
		}
	}
	return n
}

func (m *mockAcademicSessionRepo) Create(_ context.Context, session *model.AcademicSession) error {
	if err := m.enter("Create"); err != nil {
		return err
	}
	if session.IsCurrent && m.currentCount() > 0 {
		return pkgerrors.ErrCurrentTaken
	}
	m.add(session)
	return nil
}

func (m *mockAcademicSessionRepo) AddPeriods(_ context.Context, id string, periods []model.SessionPeriod) error {
	if err := m.enter("AddPeriods"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, p := range periods {
		p.AcademicSessionID = id
		if p.SessionPeriodID == "" {
			p.SessionPeriodID = "p-" + p.Name
		}
		s.Sessions = append(s.Sessions, p)
	}
	return nil
}

func (m *mockAcademicSessionRepo) GetByID(_ context.Context, id string) (*model.AcademicSession, error) {
	if err := m.enter("GetByID"); err != nil {
		return nil, err
	}
	if s, ok := m.sessions[id]; ok {
		return cloneSession(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicSessionRepo) FindByYears(_ context.Context, startYear, endYear int) (*model.AcademicSession, error) {
	if err := m.enter("FindByYears"); err != nil {
		return nil, err
	}
	for _, s := range m.sessions {
		if s.StartYear == startYear && s.EndYear == endYear {
			return cloneSession(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicSessionRepo) FindByPeriodName(_ context.Context, name string) (*model.AcademicSession, error) {
	if err := m.enter("FindByPeriodName"); err != nil {
		return nil, err
	}
	for _, s := range m.sessions {
		if s.Period(name) != nil {
			return cloneSession(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicSessionRepo) FindCurrent(_ context.Context) (*model.AcademicSession, error) {
	if err := m.enter("FindCurrent"); err != nil {
		return nil, err
	}
	for _, s := range m.sessions {
		if s.IsCurrent {
			return cloneSession(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAcademicSessionRepo) LockCurrent(ctx context.Context) (*model.AcademicSession, error) {
	if err := m.fail.check("LockCurrent"); err != nil {
		return nil, err
	}
	return m.FindCurrent(ctx)
}

func (m *mockAcademicSessionRepo) CountCurrent(_ context.Context) (int64, error) {
	if err := m.enter("CountCurrent"); err != nil {
		return 0, err
	}
	return int64(m.currentCount()), nil
}

func (m *mockAcademicSessionRepo) List(_ context.Context) ([]model.AcademicSession, error) {
	if err := m.enter("List"); err != nil {
		return nil, err
	}
	result := make([]model.AcademicSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, *cloneSession(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartYear > result[j].StartYear })
	return result, nil
}

func (m *mockAcademicSessionRepo) MarkArchived(_ context.Context, id string, at time.Time, _ string) error {
	if err := m.enter("MarkArchived"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.ArchivedAt != nil {
		return pkgerrors.ErrConditionFailed
	}
	s.IsCurrent = false
	s.ArchivedAt = &at
	return nil
}

func (m *mockAcademicSessionRepo) UnmarkArchived(_ context.Context, id string, at time.Time, wasCurrent bool) error {
	if err := m.enter("UnmarkArchived"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.ArchivedAt == nil || !s.ArchivedAt.Equal(at) {
		return pkgerrors.ErrNotReversible
	}
	s.IsCurrent = wasCurrent
	s.ArchivedAt = nil
	return nil
}

func (m *mockAcademicSessionRepo) MarkCurrent(_ context.Context, id, fromPeriod, toPeriod, _ string) error {
	if err := m.enter("MarkCurrent"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.CurrentPeriod != fromPeriod || s.ArchivedAt != nil {
		return pkgerrors.ErrConditionFailed
	}
	if !s.IsCurrent && m.currentCount() > 0 {
		return pkgerrors.ErrCurrentTaken
	}
	s.IsCurrent = true
	s.CurrentPeriod = toPeriod
	return nil
}

func (m *mockAcademicSessionRepo) ClearCurrent(_ context.Context, id, fromPeriod, toPeriod string) error {
	if err := m.enter("ClearCurrent"); err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.CurrentPeriod != fromPeriod {
		return pkgerrors.ErrNotReversible
	}
	s.IsCurrent = false
	s.CurrentPeriod = toPeriod
	return nil
}

func (m *mockAcademicSessionRepo) ArchivePeriod(_ context.Context, periodID string, at time.Time, _ string) error {
	if err := m.enter("ArchivePeriod"); err != nil {
		return err
	}
	p := m.period(periodID)
	if p == nil || p.ArchivedAt != nil {
		return pkgerrors.ErrConditionFailed
	}
	p.ArchivedAt = &at
	return nil
}

func (m *mockAcademicSessionRepo) UnarchivePeriod(_ context.Context, periodID string, at time.Time) error {
	if err := m.enter("UnarchivePeriod"); err != nil {
		return err
	}
	p := m.period(periodID)
	if p == nil || p.ArchivedAt == nil || !p.ArchivedAt.Equal(at) {
		return pkgerrors.ErrNotReversible
	}
	p.ArchivedAt = nil
	return nil
}

func (m *mockAcademicSessionRepo) ArchivePeriods(_ context.Context, id string, at time.Time, _ string) (int64, error) {
	if err := m.enter("ArchivePeriods"); err != nil {
		return 0, err
	}
	s, ok := m.sessions[id]
	if !ok {
		return 0, nil
	}
	var n int64
	for i := range s.Sessions {
		if s.Sessions[i].ArchivedAt == nil {
			stamp := at
			s.Sessions[i].ArchivedAt = &stamp
			n++
		}
	}
	return n, nil
}

// ── Mock MenteeRepository ──

type mockMenteeRepo struct {
	mentees map[string]*model.Mentee
	fail    failures
}

func newMockMenteeRepo() *mockMenteeRepo {
	return &mockMenteeRepo{mentees: make(map[string]*model.Mentee), fail: failures{}}
}

func (m *mockMenteeRepo) add(mujid string, semester int, year, session string) {
	m.mentees[mujid] = &model.Mentee{
		MenteeID:        "m-" + mujid,
		MUJid:           mujid,
		Name:            "Mentee " + mujid,
		Email:           strings.ToLower(mujid) + "@example.edu",
		Semester:        semester,
		AcademicYear:    year,
		AcademicSession: session,
	}
}

func (m *mockMenteeRepo) List(_ context.Context, filter repository.MenteeFilter, offset, limit int) ([]model.Mentee, int64, error) {
	if err := m.fail.check("List"); err != nil {
		return nil, 0, err
	}
	var all []model.Mentee
	for _, mt := range m.mentees {
		if filter.AcademicYear != "" && mt.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.AcademicSession != "" && mt.AcademicSession != filter.AcademicSession {
			continue
		}
		if filter.Semester > 0 && mt.Semester != filter.Semester {
			continue
		}
		all = append(all, *mt)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].MUJid < all[j].MUJid })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Mentee{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockMenteeRepo) CountAtSemester(_ context.Context, cohort repository.MenteeCohort, semester int) (int64, error) {
	if err := m.fail.check("CountAtSemester"); err != nil {
		return 0, err
	}
	var n int64
	for _, mt := range m.mentees {
		if mt.AcademicYear == cohort.AcademicYear && mt.AcademicSession == cohort.AcademicSession && mt.Semester >= semester {
			n++
		}
	}
	return n, nil
}

func (m *mockMenteeRepo) BulkAdvanceSemesters(_ context.Context, cohort, next repository.MenteeCohort, delta, maxSemester int) (int64, error) {
	if err := m.fail.check("BulkAdvanceSemesters"); err != nil {
		return 0, err
	}
	var n int64
	for _, mt := range m.mentees {
		if mt.AcademicYear != cohort.AcademicYear || mt.AcademicSession != cohort.AcademicSession {
			continue
		}
		mt.Semester += delta
		if mt.Semester > maxSemester {
			mt.Semester = maxSemester
		}
		mt.AcademicYear = next.AcademicYear
		mt.AcademicSession = next.AcademicSession
		n++
	}
	return n, nil
}

func (m *mockMenteeRepo) Upsert(_ context.Context, mentees []model.Mentee) (int64, error) {
	if err := m.fail.check("Upsert"); err != nil {
		return 0, err
	}
	for i := range mentees {
		mt := mentees[i]
		if existing, ok := m.mentees[mt.MUJid]; ok {
			mt.MenteeID = existing.MenteeID
		} else {
			mt.MenteeID = "m-" + mt.MUJid
		}
		m.mentees[mt.MUJid] = &mt
	}
	return int64(len(mentees)), nil
}

// ── Mock MeetingRepository ──

type mockMeetingRepo struct {
	meetings []*model.Meeting
	fail     failures
}

func newMockMeetingRepo() *mockMeetingRepo {
	return &mockMeetingRepo{fail: failures{}}
}

func (m *mockMeetingRepo) add(sessionName string, n int) {
	for i := 0; i < n; i++ {
		m.meetings = append(m.meetings, &model.Meeting{SessionName: sessionName, SemesterNumber: 1})
	}
}

func (m *mockMeetingRepo) archived(sessionName string) int {
	n := 0
	for _, mt := range m.meetings {
		if mt.SessionName == sessionName && mt.ArchivedAt != nil {
			n++
		}
	}
	return n
}

func (m *mockMeetingRepo) ArchiveByPeriod(_ context.Context, sessionName string, at time.Time) (int64, error) {
	if err := m.fail.check("ArchiveByPeriod"); err != nil {
		return 0, err
	}
	var n int64
	for _, mt := range m.meetings {
		if mt.SessionName == sessionName && mt.ArchivedAt == nil {
			stamp := at
			mt.ArchivedAt = &stamp
			n++
		}
	}
	return n, nil
}

func (m *mockMeetingRepo) UnarchiveByPeriod(_ context.Context, sessionName string, at time.Time) (int64, error) {
	if err := m.fail.check("UnarchiveByPeriod"); err != nil {
		return 0, err
	}
	var n int64
	for _, mt := range m.meetings {
		if mt.SessionName == sessionName && mt.ArchivedAt != nil && mt.ArchivedAt.Equal(at) {
			mt.ArchivedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *mockMeetingRepo) CountByPeriod(_ context.Context, sessionName string) (int64, error) {
	var n int64
	for _, mt := range m.meetings {
		if mt.SessionName == sessionName {
			n++
		}
	}
	return n, nil
}

// ── Mock RolloverLocker ──

type mockLocker struct {
	held     map[string]string
	err      error
	unlocked int
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (l *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.held[key] = "token-" + key
	return l.held[key], true, nil
}

func (l *mockLocker) Unlock(_ context.Context, key, token string) error {
	if l.held[key] == token {
		delete(l.held, key)
		l.unlocked++
	}
	return nil
}
