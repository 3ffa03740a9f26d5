package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentorlink/backend/internal/academic"
	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/model"
	"mentorlink/backend/internal/repository"
	pkgerrors "mentorlink/backend/pkg/errors"
)

const rolloverLockKey = "academic-session:rollover"

// Rollover steps, reported in PartialRolloverError.Step and in logs.
const (
	stepArchivePeriod   = "archive_period"
	stepArchiveYear     = "archive_year"
	stepPromote         = "promote_upcoming"
	stepArchiveMeetings = "archive_meetings"
	stepAdvanceMentees  = "advance_mentees"
	stepCommit          = "commit"
)

// PartialRolloverError a rollover failed after it had started writing.
// RollbackErr is nil when every applied step was undone; otherwise the
// store is in a mixed state and needs manual remediation.
type PartialRolloverError struct {
	Step        string
	Cause       error
	RollbackErr error
}

func (e *PartialRolloverError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("session rollover failed at %s: %v; rollback failed: %v", e.Step, e.Cause, e.RollbackErr)
	}
	return fmt.Sprintf("session rollover failed at %s and was rolled back: %v", e.Step, e.Cause)
}

func (e *PartialRolloverError) Unwrap() error { return e.Cause }

// RolledBack reports whether the store was left as it was before the rollover.
func (e *PartialRolloverError) RolledBack() bool { return e.RollbackErr == nil }

// rolloverPlan the validated request.
type rolloverPlan struct {
	outgoing  academic.PeriodInfo
	target    academic.PeriodInfo
	crossYear bool
	current   dto.YearRange
	upcoming  dto.YearRange
}

// ═══════════════════════════════════════════════════════════
// Rollover: promote the upcoming period to current
// ═══════════════════════════════════════════════════════════
//
// Steps, in order:
//  1. archive the outgoing period (and its year record when the target
//     lives in the next academic year)
//  2. mark the target period current
//  3. archive the outgoing period's meetings
//  4. advance the outgoing cohort's mentees by one semester, capped
//
// Mentee advancement cannot be inverted, so it runs last.

func (s *academicSessionService) Rollover(ctx context.Context, req *dto.RolloverRequest, callerID string) (*dto.RolloverResponse, error) {
	plan, err := planRollover(req)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, rolloverLockKey, s.lockTTL)
		switch {
		case err != nil:
			// Rows are still guarded by the row lock and conditional updates.
			s.logger.Warn("rollover lock unavailable, continuing without it", zap.Error(err))
		case !ok:
			return nil, ErrRolloverInProgress
		default:
			defer func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), rolloverLockKey, token); err != nil {
					s.logger.Warn("release rollover lock failed", zap.Error(err))
				}
			}()
		}
	}

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

	resp, err := s.rollover(ctx, u, plan, callerID)
	if err != nil {
		rbErr := u.abort(ctx)
		var partial *PartialRolloverError
		if errors.As(err, &partial) {
			partial.RollbackErr = rbErr
			if rbErr != nil {
				s.logger.Error("session rollover left partial state, manual remediation required",
					zap.String("step", partial.Step),
					zap.String("outgoing", plan.outgoing.SessionName),
					zap.String("target", plan.target.SessionName),
					zap.NamedError("cause", partial.Cause),
					zap.NamedError("rollback", rbErr))
			} else {
				s.logger.Warn("session rollover rolled back",
					zap.String("step", partial.Step), zap.Error(partial.Cause))
			}
		}
		return nil, err
	}

	if err := u.commit(); err != nil {
		s.logger.Error("commit rollover failed", zap.Error(err))
		return nil, &PartialRolloverError{Step: stepCommit, Cause: err}
	}

	s.logger.Info("session rollover completed",
		zap.String("previous", resp.PreviousSession),
		zap.String("current", resp.CurrentSession),
		zap.Int64("meetings_archived", resp.MeetingsArchived),
		zap.Int64("mentees_advanced", resp.MenteesAdvanced),
		zap.Int64("mentees_graduated", resp.MenteesGraduated),
		zap.String("by", callerID))

	if current, err := s.repo.AcademicSession.FindCurrent(ctx); err == nil {
		resp.Current = toAcademicSessionResponse(current)
	} else {
		s.logger.Warn("reload current session after rollover failed", zap.Error(err))
	}
	return resp, nil
}

// planRollover checks everything that does not need the store.
func planRollover(req *dto.RolloverRequest) (*rolloverPlan, error) {
	cur, up := req.CurrentSession, req.UpcomingSession
	if err := checkYearRange(cur.StartYear, cur.EndYear); err != nil {
		return nil, err
	}
	if err := checkYearRange(up.StartYear, up.EndYear); err != nil {
		return nil, err
	}

	target, err := academic.ParsePeriod(academic.NormalizePeriodName(up.SessionName))
	if err != nil {
		return nil, err
	}
	if target.AcademicYear != academic.AcademicYearLabel(up.StartYear) {
		return nil, fmt.Errorf("%w: %s does not belong to %s",
			ErrInvalidInput, target.SessionName, academic.AcademicYearLabel(up.StartYear))
	}

	outgoing, err := academic.PreviousFrom(target)
	if err != nil {
		return nil, err
	}
	if outgoing.AcademicYear != academic.AcademicYearLabel(cur.StartYear) {
		return nil, fmt.Errorf("%w: %s does not follow a period of %s",
			ErrInvalidTransition, target.SessionName, academic.AcademicYearLabel(cur.StartYear))
	}

	return &rolloverPlan{
		outgoing:  outgoing,
		target:    target,
		crossYear: outgoing.AcademicYear != target.AcademicYear,
		current:   cur,
		upcoming:  dto.YearRange{StartYear: up.StartYear, EndYear: up.EndYear},
	}, nil
}

func (s *academicSessionService) rollover(ctx context.Context, u *unitOfWork, plan *rolloverPlan, callerID string) (*dto.RolloverResponse, error) {
	repo := u.repo

	// Lock first so the reads below see settled state.
	current, err := repo.AcademicSession.LockCurrent(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lock current academic session failed", zap.Error(err))
		return nil, err
	}

	outgoingYear, outgoingPeriod, err := s.findPeriod(ctx, repo, plan.outgoing.SessionName)
	if err != nil {
		return nil, err
	}
	if outgoingPeriod.ArchivedAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyArchived, outgoingPeriod.Name)
	}

	if current == nil ||
		current.AcademicSessionID != outgoingYear.AcademicSessionID ||
		current.StartYear != plan.current.StartYear ||
		current.CurrentPeriod != plan.outgoing.SessionName {
		return nil, fmt.Errorf("%w: %s is not the current period", ErrInvalidTransition, plan.outgoing.SessionName)
	}

	targetYear := current
	if plan.crossYear {
		targetYear, err = repo.AcademicSession.FindByYears(ctx, plan.upcoming.StartYear, plan.upcoming.EndYear)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: academic year %s is not created",
					ErrInvalidTransition, plan.target.AcademicYear)
			}
			s.logger.Error("find target academic session failed", zap.Error(err))
			return nil, err
		}
		if targetYear.ArchivedAt != nil {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyArchived, plan.target.AcademicYear)
		}
	}
	targetPeriod := targetYear.Period(plan.target.SessionName)
	if targetPeriod == nil {
		return nil, fmt.Errorf("%w: period %s is not created", ErrInvalidTransition, plan.target.SessionName)
	}
	if targetPeriod.ArchivedAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyArchived, targetPeriod.Name)
	}

	at := s.stamp()
	resp := &dto.RolloverResponse{
		PreviousSession: plan.outgoing.SessionName,
		CurrentSession:  plan.target.SessionName,
		AcademicYear:    plan.target.AcademicYear,
	}

	// 1. archive outgoing period
	periodID := outgoingPeriod.SessionPeriodID
	if err := repo.AcademicSession.ArchivePeriod(ctx, periodID, at, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyArchived, plan.outgoing.SessionName)
		}
		s.logger.Error("archive outgoing period failed", zap.Error(err))
		return nil, err
	}
	u.onAbort(stepArchivePeriod, func(ctx context.Context) error {
		return s.repo.AcademicSession.UnarchivePeriod(ctx, periodID, at)
	})

	outgoingID := current.AcademicSessionID
	if plan.crossYear {
		if err := repo.AcademicSession.MarkArchived(ctx, outgoingID, at, callerID); err != nil {
			if errors.Is(err, pkgerrors.ErrConditionFailed) {
				err = ErrAlreadyArchived
			}
			return nil, &PartialRolloverError{Step: stepArchiveYear, Cause: err}
		}
		u.onAbort(stepArchiveYear, func(ctx context.Context) error {
			return s.repo.AcademicSession.UnmarkArchived(ctx, outgoingID, at, true)
		})
	}

	// 2. promote target
	targetID := targetYear.AcademicSessionID
	fromPeriod := targetYear.CurrentPeriod
	if err := repo.AcademicSession.MarkCurrent(ctx, targetID, fromPeriod, plan.target.SessionName, callerID); err != nil {
		if errors.Is(err, pkgerrors.ErrConditionFailed) {
			err = ErrInvalidTransition
		}
		return nil, &PartialRolloverError{Step: stepPromote, Cause: sessionConflict(err)}
	}
	u.onAbort(stepPromote, func(ctx context.Context) error {
		if plan.crossYear {
			return s.repo.AcademicSession.ClearCurrent(ctx, targetID, plan.target.SessionName, fromPeriod)
		}
		return s.repo.AcademicSession.MarkCurrent(ctx, targetID, plan.target.SessionName, fromPeriod, callerID)
	})

	// 3. archive meetings of the outgoing period
	meetings, err := repo.Meeting.ArchiveByPeriod(ctx, plan.outgoing.SessionName, at)
	if err != nil {
		return nil, &PartialRolloverError{Step: stepArchiveMeetings, Cause: err}
	}
	resp.MeetingsArchived = meetings
	u.onAbort(stepArchiveMeetings, func(ctx context.Context) error {
		_, err := s.repo.Meeting.UnarchiveByPeriod(ctx, plan.outgoing.SessionName, at)
		return err
	})

	// 4. advance mentees
	cohort := repository.MenteeCohort{
		AcademicYear:    plan.outgoing.AcademicYear,
		AcademicSession: plan.outgoing.SessionName,
	}
	next := repository.MenteeCohort{
		AcademicYear:    plan.target.AcademicYear,
		AcademicSession: plan.target.SessionName,
	}
	graduated, err := repo.Mentee.CountAtSemester(ctx, cohort, s.maxSemester)
	if err != nil {
		return nil, &PartialRolloverError{Step: stepAdvanceMentees, Cause: err}
	}
	moved, err := repo.Mentee.BulkAdvanceSemesters(ctx, cohort, next, 1, s.maxSemester)
	if err != nil {
		return nil, &PartialRolloverError{Step: stepAdvanceMentees, Cause: err}
	}
	resp.MenteesReassigned = moved
	resp.MenteesGraduated = graduated
	resp.MenteesAdvanced = moved - graduated
	if resp.MenteesAdvanced < 0 {
		resp.MenteesAdvanced = 0
	}

	return resp, nil
}

// findPeriod loads the year record holding the period called name.
func (s *academicSessionService) findPeriod(ctx context.Context, repo *repository.Repository, name string) (*model.AcademicSession, *model.SessionPeriod, error) {
	year, err := repo.AcademicSession.FindByPeriodName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: period %s is not created", ErrInvalidTransition, name)
		}
		s.logger.Error("find session period failed", zap.String("name", name), zap.Error(err))
		return nil, nil, err
	}
	period := year.Period(name)
	if period == nil {
		return nil, nil, fmt.Errorf("%w: period %s is not created", ErrInvalidTransition, name)
	}
	return year, period, nil
}

