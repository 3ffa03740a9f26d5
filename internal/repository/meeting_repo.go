package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mentorlink/backend/internal/model"
)

// MeetingRepository archival of the meeting subsystem's records
type MeetingRepository interface {
	ArchiveByPeriod(ctx context.Context, sessionName string, at time.Time) (int64, error)
	UnarchiveByPeriod(ctx context.Context, sessionName string, at time.Time) (int64, error)
	CountByPeriod(ctx context.Context, sessionName string) (int64, error)
}

type meetingRepo struct {
	db *gorm.DB
}

// NewMeetingRepo creates a MeetingRepository.
func NewMeetingRepo(db *gorm.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) ArchiveByPeriod(ctx context.Context, sessionName string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("session_name = ? AND archived_at IS NULL", sessionName).
		Updates(map[string]interface{}{
			"archived_at": at,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// UnarchiveByPeriod undoes only the archive stamped at `at`.
func (r *meetingRepo) UnarchiveByPeriod(ctx context.Context, sessionName string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("session_name = ? AND archived_at = ?", sessionName, at).
		Updates(map[string]interface{}{
			"archived_at": nil,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

func (r *meetingRepo) CountByPeriod(ctx context.Context, sessionName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("session_name = ?", sessionName).
		Count(&count).Error
	return count, err
}
