package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/academic"
	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/model"
	"mentorlink/backend/internal/repository"
	pkgerrors "mentorlink/backend/pkg/errors"
)

// ── academic session errors ──

var (
	ErrSessionNotFound    = errors.New("academic session not found")
	ErrSessionExists      = errors.New("academic session period already exists")
	ErrInvalidInput       = academic.ErrInvalidInput
	ErrInvalidTransition  = errors.New("invalid academic session transition")
	ErrAlreadyArchived    = errors.New("academic session already archived")
	ErrRolloverInProgress = errors.New("another session rollover is in progress")
)

// AcademicSessionService academic year lifecycle
type AcademicSessionService interface {
	Create(ctx context.Context, req *dto.CreateAcademicSessionRequest, callerID string) (*dto.AcademicSessionResponse, error)
	List(ctx context.Context) ([]dto.AcademicSessionResponse, error)
	GetCurrent(ctx context.Context) (*dto.AcademicSessionResponse, error)
	// Periods computes the current and upcoming periods for date
	// ("2006-01-02", empty means today) and whether each is persisted.
	Periods(ctx context.Context, date string) (*dto.PeriodStatusResponse, error)
	Archive(ctx context.Context, req *dto.ArchiveAcademicSessionRequest, callerID string) (*dto.ArchiveResponse, error)
	Rollover(ctx context.Context, req *dto.RolloverRequest, callerID string) (*dto.RolloverResponse, error)
}

// RolloverLocker a cross-instance mutex. *redis.Client implements it.
type RolloverLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type academicSessionService struct {
	repo        *repository.Repository
	locker      RolloverLocker
	logger      *zap.Logger
	loc         *time.Location
	lockTTL     time.Duration
	maxSemester int
	now         func() time.Time
}

// NewAcademicSessionService creates an AcademicSessionService. locker may be nil.
func NewAcademicSessionService(
	cfg *config.AcademicConfig,
	repo *repository.Repository,
	locker RolloverLocker,
	logger *zap.Logger,
) AcademicSessionService {
	return newAcademicSessionService(cfg, repo, locker, logger)
}

func newAcademicSessionService(
	cfg *config.AcademicConfig,
	repo *repository.Repository,
	locker RolloverLocker,
	logger *zap.Logger,
) *academicSessionService {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	maxSemester := cfg.MaxSemester
	if maxSemester < 1 || maxSemester > academic.FinalSemester {
		maxSemester = academic.FinalSemester
	}
	lockTTL := cfg.RolloverLockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &academicSessionService{
		repo:        repo,
		locker:      locker,
		logger:      logger,
		loc:         loc,
		lockTTL:     lockTTL,
		maxSemester: maxSemester,
		now:         time.Now,
	}
}

// stamp is the archive timestamp of one operation. Compensations match
// archived_at exactly, so it is truncated to the column's precision.
func (s *academicSessionService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ────────────────────── Create ──────────────────────

func (s *academicSessionService) Create(ctx context.Context, req *dto.CreateAcademicSessionRequest, callerID string) (*dto.AcademicSessionResponse, error) {
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}
	periods, err := buildPeriods(req)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		periods[i].Audit(callerID)
	}

	today, err := academic.CurrentAt(s.now().In(s.loc))
	if err != nil {
		return nil, err
	}
	currentCount, err := s.repo.AcademicSession.CountCurrent(ctx)
	if err != nil {
		s.logger.Error("count current academic sessions failed", zap.Error(err))
		return nil, err
	}
	// The first record covering today's period becomes current on its own;
	// afterwards only a rollover moves the current marker.
	claimCurrent := ""
	if currentCount == 0 {
		for _, p := range periods {
			if p.Name == today.SessionName {
				claimCurrent = p.Name
			}
		}
	}

	existing, err := s.repo.AcademicSession.FindByYears(ctx, req.StartYear, req.EndYear)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		session := &model.AcademicSession{
			StartYear:     req.StartYear,
			EndYear:       req.EndYear,
			IsCurrent:     claimCurrent != "",
			CurrentPeriod: claimCurrent,
			Sessions:      periods,
		}
		session.Audit(callerID)
		if err := s.repo.AcademicSession.Create(ctx, session); err != nil {
			if conflict := sessionConflict(err); conflict != err {
				s.logger.Warn("create academic session lost a race",
					zap.String("academic_year", academic.AcademicYearLabel(req.StartYear)), zap.Error(err))
				return nil, conflict
			}
			s.logger.Error("create academic session failed",
				zap.String("academic_year", academic.AcademicYearLabel(req.StartYear)), zap.Error(err))
			return nil, err
		}
		s.logger.Info("academic session created",
			zap.String("academic_year", academic.AcademicYearLabel(req.StartYear)),
			zap.Bool("is_current", session.IsCurrent))
		return s.reload(ctx, session.AcademicSessionID)
	case err != nil:
		s.logger.Error("find academic session failed", zap.Error(err))
		return nil, err
	}

	if existing.ArchivedAt != nil {
		return nil, ErrAlreadyArchived
	}
	for _, p := range periods {
		if existing.Period(p.Name) != nil {
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, p.Name)
		}
	}

	u, err := beginUnit(ctx, s.repo, s.logger)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return nil, err
	}
	if err := s.addPeriods(ctx, u, existing, periods, claimCurrent, callerID); err != nil {
		if rbErr := u.abort(ctx); rbErr != nil {
			s.logger.Error("add periods rollback failed", zap.Error(rbErr))
		}
		return nil, err
	}
	if err := u.commit(); err != nil {
		s.logger.Error("commit transaction failed", zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, existing.AcademicSessionID)
}

func (s *academicSessionService) addPeriods(ctx context.Context, u *unitOfWork, existing *model.AcademicSession, periods []model.SessionPeriod, claimCurrent, callerID string) error {
	if err := u.repo.AcademicSession.AddPeriods(ctx, existing.AcademicSessionID, periods); err != nil {
		if conflict := sessionConflict(err); conflict != err {
			return conflict
		}
		s.logger.Error("add session periods failed",
			zap.String("id", existing.AcademicSessionID), zap.Error(err))
		return err
	}
	if claimCurrent == "" {
		return nil
	}
	err := u.repo.AcademicSession.MarkCurrent(ctx, existing.AcademicSessionID, existing.CurrentPeriod, claimCurrent, callerID)
	if errors.Is(err, pkgerrors.ErrConditionFailed) {
		return ErrInvalidTransition
	}
	return sessionConflict(err)
}

// sessionConflict maps unique-key conflicts from the store to domain errors.
func sessionConflict(err error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrCurrentTaken):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, pkgerrors.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrSessionExists, err)
	default:
		return err
	}
}

// buildPeriods validates the requested periods against the year and fills
// in default semesters.
func buildPeriods(req *dto.CreateAcademicSessionRequest) ([]model.SessionPeriod, error) {
	label := academic.AcademicYearLabel(req.StartYear)
	seen := make(map[string]bool, len(req.Sessions))
	periods := make([]model.SessionPeriod, 0, len(req.Sessions))

	for _, in := range req.Sessions {
		name := academic.NormalizePeriodName(in.Name)
		half, year, err := academic.ParsePeriodName(name)
		if err != nil {
			return nil, err
		}
		info, err := academic.PeriodOf(half, year)
		if err != nil {
			return nil, err
		}
		if info.AcademicYear != label {
			return nil, fmt.Errorf("%w: %s does not belong to %s", ErrInvalidInput, name, label)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidInput, name)
		}
		seen[name] = true

		allowed := model.IntArray(academic.SemestersFor(half))
		semesters := model.IntArray(info.Semesters)
		if len(in.Semesters) > 0 {
			semesters = make(model.IntArray, 0, len(in.Semesters))
			for _, sem := range in.Semesters {
				if !allowed.Contains(sem.SemesterNumber) {
					return nil, fmt.Errorf("%w: semester %d is not taught in %s", ErrInvalidInput, sem.SemesterNumber, name)
				}
				if semesters.Contains(sem.SemesterNumber) {
					continue
				}
				semesters = append(semesters, sem.SemesterNumber)
			}
		}

		periods = append(periods, model.SessionPeriod{Name: name, Semesters: semesters})
	}
	return periods, nil
}

func checkYearRange(startYear, endYear int) error {
	if endYear != startYear+1 {
		return fmt.Errorf("%w: end year %d must follow start year %d", ErrInvalidInput, endYear, startYear)
	}
	return nil
}

// ────────────────────── List / GetCurrent ──────────────────────

func (s *academicSessionService) List(ctx context.Context) ([]dto.AcademicSessionResponse, error) {
	sessions, err := s.repo.AcademicSession.List(ctx)
	if err != nil {
		s.logger.Error("list academic sessions failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AcademicSessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toAcademicSessionResponse(&sessions[i]))
	}
	return result, nil
}

func (s *academicSessionService) GetCurrent(ctx context.Context) (*dto.AcademicSessionResponse, error) {
	session, err := s.repo.AcademicSession.FindCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("find current academic session failed", zap.Error(err))
		return nil, err
	}
	return toAcademicSessionResponse(session), nil
}

func (s *academicSessionService) reload(ctx context.Context, id string) (*dto.AcademicSessionResponse, error) {
	session, err := s.repo.AcademicSession.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("get academic session failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAcademicSessionResponse(session), nil
}

// ────────────────────── Periods ──────────────────────

func (s *academicSessionService) Periods(ctx context.Context, date string) (*dto.PeriodStatusResponse, error) {
	ref := s.now().In(s.loc)
	if date != "" {
		var err error
		if ref, err = academic.ParseReferenceDate(date, s.loc); err != nil {
			return nil, err
		}
	}

	periods, err := academic.ComputePeriods(ref)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.AcademicSession.List(ctx)
	if err != nil {
		s.logger.Error("list academic sessions failed", zap.Error(err))
		return nil, err
	}
	exists := academic.ResolveExistence(periods, sessions)

	return &dto.PeriodStatusResponse{
		ReferenceDate: ref.Format("2006-01-02"),
		Current:       toPeriodResponse(periods.Current, exists.CurrentExists),
		Upcoming:      toPeriodResponse(periods.Upcoming, exists.UpcomingExists),
	}, nil
}

// ────────────────────── Archive ──────────────────────

func (s *academicSessionService) Archive(ctx context.Context, req *dto.ArchiveAcademicSessionRequest, callerID string) (*dto.ArchiveResponse, error) {
	if err := checkYearRange(req.StartYear, req.EndYear); err != nil {
		return nil, err
	}

	session, err := s.repo.AcademicSession.FindByYears(ctx, req.StartYear, req.EndYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("find academic session failed", zap.Error(err))
		return nil, err
	}
	if session.ArchivedAt != nil {
		return nil, ErrAlreadyArchived
	}
	// The current year is only retired by a rollover, which promotes its successor.
	if session.IsCurrent {
		return nil, fmt.Errorf("%w: %s is the current academic year, roll it over instead",
			ErrInvalidTransition, academic.AcademicYearLabel(session.StartYear))
	}

	at := s.stamp()
	u, err := beginUnit(ctx, s.repo, s.logger)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = u.abort(ctx)
			panic(r)
		}
	}()

	resp, err := s.archiveYear(ctx, u, session, at, callerID)
	if err != nil {
		if rbErr := u.abort(ctx); rbErr != nil {
			s.logger.Error("archive rollback failed",
				zap.String("academic_year", resp.AcademicYear), zap.Error(rbErr))
			return nil, errors.Join(err, rbErr)
		}
		return nil, err
	}
	if err := u.commit(); err != nil {
		s.logger.Error("commit transaction failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("academic session archived",
		zap.String("academic_year", resp.AcademicYear),
		zap.Int64("periods", resp.PeriodsArchived),
		zap.Int64("meetings", resp.MeetingsArchived))
	return resp, nil
}

func (s *academicSessionService) archiveYear(ctx context.Context, u *unitOfWork, session *model.AcademicSession, at time.Time, callerID string) (*dto.ArchiveResponse, error) {
	id := session.AcademicSessionID
	resp := &dto.ArchiveResponse{
		AcademicYear: academic.AcademicYearLabel(session.StartYear),
		ArchivedAt:   at.Format(time.RFC3339),
	}

	if err := u.repo.AcademicSession.MarkArchived(ctx, id, at, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionFailed) {
			return resp, ErrAlreadyArchived
		}
		return resp, err
	}
	u.onAbort("mark_archived", func(ctx context.Context) error {
		return s.repo.AcademicSession.UnmarkArchived(ctx, id, at, false)
	})

	n, err := u.repo.AcademicSession.ArchivePeriods(ctx, id, at, callerID)
	if err != nil {
		return resp, err
	}
	resp.PeriodsArchived = n
	for _, p := range session.Sessions {
		if p.ArchivedAt != nil {
			continue
		}
		periodID := p.SessionPeriodID
		u.onAbort("archive_period", func(ctx context.Context) error {
			return s.repo.AcademicSession.UnarchivePeriod(ctx, periodID, at)
		})
	}

	for _, p := range session.Sessions {
		name := p.Name
		n, err := u.repo.Meeting.ArchiveByPeriod(ctx, name, at)
		if err != nil {
			return resp, err
		}
		resp.MeetingsArchived += n
		u.onAbort("archive_meetings", func(ctx context.Context) error {
			_, err := s.repo.Meeting.UnarchiveByPeriod(ctx, name, at)
			return err
		})
	}

	return resp, nil
}

// ── response mapping ──

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toPeriodResponse(p academic.PeriodInfo, exists bool) dto.PeriodResponse {
	return dto.PeriodResponse{
		AcademicYear: p.AcademicYear,
		SessionName:  p.SessionName,
		Semesters:    p.Semesters,
		Exists:       exists,
	}
}

func toAcademicSessionResponse(session *model.AcademicSession) *dto.AcademicSessionResponse {
	periods := make([]dto.SessionPeriodResponse, 0, len(session.Sessions))
	for _, p := range session.Sessions {
		semesters := make([]dto.SemesterOutput, 0, len(p.Semesters))
		for _, n := range p.Semesters {
			semesters = append(semesters, dto.SemesterOutput{SemesterNumber: n})
		}
		periods = append(periods, dto.SessionPeriodResponse{
			ID:         p.SessionPeriodID,
			Name:       p.Name,
			Semesters:  semesters,
			IsCurrent:  session.IsCurrent && p.Name == session.CurrentPeriod,
			ArchivedAt: formatTime(p.ArchivedAt),
		})
	}

	return &dto.AcademicSessionResponse{
		ID:            session.AcademicSessionID,
		AcademicYear:  academic.AcademicYearLabel(session.StartYear),
		StartYear:     session.StartYear,
		EndYear:       session.EndYear,
		IsCurrent:     session.IsCurrent,
		CurrentPeriod: session.CurrentPeriod,
		ArchivedAt:    formatTime(session.ArchivedAt),
		Sessions:      periods,
		CreatedAt:     session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
