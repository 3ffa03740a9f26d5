package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups every repository behind one handle.
type Repository struct {
	db              *gorm.DB
	AcademicSession AcademicSessionRepository
	Mentee          MenteeRepository
	Meeting         MeetingRepository
}

// NewRepository builds the gorm-backed repositories.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		AcademicSession: NewAcademicSessionRepo(db),
		Mentee:          NewMenteeRepo(db),
		Meeting:         NewMeetingRepo(db),
	}
}

// BeginTx starts a transaction. A Repository assembled without a database
// (stores that cannot do multi-statement transactions, test doubles)
// returns a nil handle, and callers fall back to compensation.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns repositories bound to tx. A nil tx returns r unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
