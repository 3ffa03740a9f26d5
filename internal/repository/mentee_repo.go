package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentorlink/backend/internal/model"
)

// MenteeCohort mentees whose semester counter refers to one period.
type MenteeCohort struct {
	AcademicYear    string
	AcademicSession string
}

// MenteeFilter list filters; zero values are ignored.
type MenteeFilter struct {
	AcademicYear    string
	AcademicSession string
	Semester        int
}

// MenteeRepository mentee persistence
type MenteeRepository interface {
	List(ctx context.Context, filter MenteeFilter, offset, limit int) ([]model.Mentee, int64, error)
	CountAtSemester(ctx context.Context, cohort MenteeCohort, semester int) (int64, error)
	// BulkAdvanceSemesters moves the cohort to next: semester grows by delta,
	// capped at maxSemester. Returns the number of rows rewritten.
	BulkAdvanceSemesters(ctx context.Context, cohort, next MenteeCohort, delta, maxSemester int) (int64, error)
	Upsert(ctx context.Context, mentees []model.Mentee) (int64, error)
}

type menteeRepo struct {
	db *gorm.DB
}

// NewMenteeRepo creates a MenteeRepository.
func NewMenteeRepo(db *gorm.DB) MenteeRepository {
	return &menteeRepo{db: db}
}

func (r *menteeRepo) List(ctx context.Context, filter MenteeFilter, offset, limit int) ([]model.Mentee, int64, error) {
	var mentees []model.Mentee
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Mentee{})
	if filter.AcademicYear != "" {
		db = db.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.AcademicSession != "" {
		db = db.Where("academic_session = ?", filter.AcademicSession)
	}
	if filter.Semester > 0 {
		db = db.Where("semester = ?", filter.Semester)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("mujid").
		Find(&mentees).Error; err != nil {
		return nil, 0, err
	}

	return mentees, total, nil
}

func (r *menteeRepo) CountAtSemester(ctx context.Context, cohort MenteeCohort, semester int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Mentee{}).
		Where("academic_year = ? AND academic_session = ? AND semester >= ?",
			cohort.AcademicYear, cohort.AcademicSession, semester).
		Count(&count).Error
	return count, err
}

func (r *menteeRepo) BulkAdvanceSemesters(ctx context.Context, cohort, next MenteeCohort, delta, maxSemester int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Mentee{}).
		Where("academic_year = ? AND academic_session = ?", cohort.AcademicYear, cohort.AcademicSession).
		Updates(map[string]interface{}{
			"semester":         gorm.Expr("LEAST(semester + ?, ?)", delta, maxSemester),
			"academic_year":    next.AcademicYear,
			"academic_session": next.AcademicSession,
			"updated_at":       gorm.Expr("NOW()"),
		})
	return result.RowsAffected, result.Error
}

// Upsert inserts mentees, updating existing ones matched by MUJid.
func (r *menteeRepo) Upsert(ctx context.Context, mentees []model.Mentee) (int64, error) {
	if len(mentees) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "mujid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "semester", "academic_year", "academic_session", "mentor_mujid", "updated_by", "updated_at",
			}),
		}).
		CreateInBatches(&mentees, 200)
	return result.RowsAffected, result.Error
}
