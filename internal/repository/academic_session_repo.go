package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentorlink/backend/internal/model"
	pkgerrors "mentorlink/backend/pkg/errors"
)

// AcademicSessionRepository persistence of academic years and their periods.
//
// Every state change is a guarded UPDATE: when the guard matches no row the
// method returns pkgerrors.ErrConditionFailed (forward) or
// pkgerrors.ErrNotReversible (compensation). Writes that would make a second
// year current fail with pkgerrors.ErrCurrentTaken, other unique keys with
// pkgerrors.ErrDuplicate.
type AcademicSessionRepository interface {
	Create(ctx context.Context, session *model.AcademicSession) error
	AddPeriods(ctx context.Context, id string, periods []model.SessionPeriod) error
	GetByID(ctx context.Context, id string) (*model.AcademicSession, error)
	FindByYears(ctx context.Context, startYear, endYear int) (*model.AcademicSession, error)
	FindByPeriodName(ctx context.Context, name string) (*model.AcademicSession, error)
	FindCurrent(ctx context.Context) (*model.AcademicSession, error)
	// LockCurrent is FindCurrent holding a row lock until the transaction ends.
	LockCurrent(ctx context.Context) (*model.AcademicSession, error)
	CountCurrent(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]model.AcademicSession, error)

	MarkArchived(ctx context.Context, id string, at time.Time, updatedBy string) error
	UnmarkArchived(ctx context.Context, id string, at time.Time, wasCurrent bool) error
	MarkCurrent(ctx context.Context, id, fromPeriod, toPeriod, updatedBy string) error
	ClearCurrent(ctx context.Context, id, fromPeriod, toPeriod string) error
	ArchivePeriod(ctx context.Context, periodID string, at time.Time, updatedBy string) error
	UnarchivePeriod(ctx context.Context, periodID string, at time.Time) error
	ArchivePeriods(ctx context.Context, id string, at time.Time, updatedBy string) (int64, error)
}

type academicSessionRepo struct {
	db *gorm.DB
}

// NewAcademicSessionRepo creates an AcademicSessionRepository.
func NewAcademicSessionRepo(db *gorm.DB) AcademicSessionRepository {
	return &academicSessionRepo{db: db}
}

func preloadPeriods(db *gorm.DB) *gorm.DB {
	return db.Preload("Sessions", func(db *gorm.DB) *gorm.DB {
		return db.Order("name")
	})
}

func (r *academicSessionRepo) Create(ctx context.Context, session *model.AcademicSession) error {
	return translateUnique(r.db.WithContext(ctx).Create(session).Error)
}

func (r *academicSessionRepo) AddPeriods(ctx context.Context, id string, periods []model.SessionPeriod) error {
	for i := range periods {
		periods[i].AcademicSessionID = id
	}
	return translateUnique(r.db.WithContext(ctx).Create(&periods).Error)
}

func (r *academicSessionRepo) GetByID(ctx context.Context, id string) (*model.AcademicSession, error) {
	var session model.AcademicSession
	err := preloadPeriods(r.db.WithContext(ctx)).
		Where("academic_session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *academicSessionRepo) FindByYears(ctx context.Context, startYear, endYear int) (*model.AcademicSession, error) {
	var session model.AcademicSession
	err := preloadPeriods(r.db.WithContext(ctx)).
		Where("start_year = ? AND end_year = ?", startYear, endYear).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *academicSessionRepo) FindByPeriodName(ctx context.Context, name string) (*model.AcademicSession, error) {
	var session model.AcademicSession
	err := preloadPeriods(r.db.WithContext(ctx)).
		Where("academic_session_id = (?)",
			r.db.Model(&model.SessionPeriod{}).Select("academic_session_id").Where("name = ?", name),
		).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *academicSessionRepo) FindCurrent(ctx context.Context) (*model.AcademicSession, error) {
	var session model.AcademicSession
	err := preloadPeriods(r.db.WithContext(ctx)).
		Where("is_current = ?", true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *academicSessionRepo) LockCurrent(ctx context.Context) (*model.AcademicSession, error) {
	var session model.AcademicSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_current = ?", true).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	// Preload runs separately: FOR UPDATE cannot be combined with the
	// association query.
	if err := r.db.WithContext(ctx).
		Where("academic_session_id = ?", session.AcademicSessionID).
		Order("name").
		Find(&session.Sessions).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *academicSessionRepo) CountCurrent(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AcademicSession{}).
		Where("is_current = ?", true).
		Count(&count).Error
	return count, err
}

func (r *academicSessionRepo) List(ctx context.Context) ([]model.AcademicSession, error) {
	var sessions []model.AcademicSession
	err := preloadPeriods(r.db.WithContext(ctx)).
		Order("start_year DESC").
		Find(&sessions).Error
	return sessions, err
}

// guarded runs a conditional update and maps "no row matched" to onMiss.
func guarded(result *gorm.DB, onMiss error) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return onMiss
	}
	return nil
}

// MarkArchived retires the academic year. The guard makes archived_at write-once.
func (r *academicSessionRepo) MarkArchived(ctx context.Context, id string, at time.Time, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.AcademicSession{}).
		Where("academic_session_id = ? AND archived_at IS NULL", id).
		Updates(map[string]interface{}{
			"is_current":  false,
			"archived_at": at,
			"updated_by":  updatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return guarded(result, pkgerrors.ErrConditionFailed)
}

// UnmarkArchived compensates MarkArchived: only the archive stamped at `at`
// is undone, and is_current goes back to wasCurrent.
func (r *academicSessionRepo) UnmarkArchived(ctx context.Context, id string, at time.Time, wasCurrent bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.AcademicSession{}).
		Where("academic_session_id = ? AND archived_at = ?", id, at).
		Updates(map[string]interface{}{
			"is_current":  wasCurrent,
			"archived_at": nil,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return guarded(result, pkgerrors.ErrNotReversible)
}

// MarkCurrent makes the year current with toPeriod as its running period,
// provided its running period is still fromPeriod.
func (r *academicSessionRepo) MarkCurrent(ctx context.Context, id, fromPeriod, toPeriod, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.AcademicSession{}).
		Where("academic_session_id = ? AND current_period = ? AND archived_at IS NULL", id, fromPeriod).
		Updates(map[string]interface{}{
			"is_current":     true,
			"current_period": toPeriod,
			"updated_by":     updatedBy,
			"updated_at":     gorm.Expr("NOW()"),
		})
	result.Error = translateUnique(result.Error)
	return guarded(result, pkgerrors.ErrConditionFailed)
}

// ClearCurrent compensates MarkCurrent on a year that was not current before.
func (r *academicSessionRepo) ClearCurrent(ctx context.Context, id, fromPeriod, toPeriod string) error {
	result := r.db.WithContext(ctx).
		Model(&model.AcademicSession{}).
		Where("academic_session_id = ? AND current_period = ?", id, fromPeriod).
		Updates(map[string]interface{}{
			"is_current":     false,
			"current_period": toPeriod,
			"updated_at":     gorm.Expr("NOW()"),
		})
	return guarded(result, pkgerrors.ErrNotReversible)
}

func (r *academicSessionRepo) ArchivePeriod(ctx context.Context, periodID string, at time.Time, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.SessionPeriod{}).
		Where("session_period_id = ? AND archived_at IS NULL", periodID).
		Updates(map[string]interface{}{
			"archived_at": at,
			"updated_by":  updatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return guarded(result, pkgerrors.ErrConditionFailed)
}

func (r *academicSessionRepo) UnarchivePeriod(ctx context.Context, periodID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.SessionPeriod{}).
		Where("session_period_id = ? AND archived_at = ?", periodID, at).
		Updates(map[string]interface{}{
			"archived_at": nil,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return guarded(result, pkgerrors.ErrNotReversible)
}

// ArchivePeriods archives every not yet archived period of the year.
func (r *academicSessionRepo) ArchivePeriods(ctx context.Context, id string, at time.Time, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SessionPeriod{}).
		Where("academic_session_id = ? AND archived_at IS NULL", id).
		Updates(map[string]interface{}{
			"archived_at": at,
			"updated_by":  updatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}
