package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentorlink/backend/internal/repository"
)

// unitOfWork is one multi-step write.
//
// With a transaction the steps share tx and abort rolls all of them back.
// Without one (BeginTx returned a nil handle) every applied step registers
// its inverse, and abort runs the inverses newest first.
type unitOfWork struct {
	repo   *repository.Repository
	tx     *gorm.DB
	undo   []undoStep
	logger *zap.Logger
}

type undoStep struct {
	step string
	fn   func(ctx context.Context) error
}

func beginUnit(ctx context.Context, repo *repository.Repository, logger *zap.Logger) (*unitOfWork, error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{repo: repo.WithTx(tx), tx: tx, logger: logger}, nil
}

// onAbort registers the inverse of a step that has just been applied.
func (u *unitOfWork) onAbort(step string, fn func(ctx context.Context) error) {
	if u.tx != nil {
		return
	}
	u.undo = append(u.undo, undoStep{step: step, fn: fn})
}

// abort discards every applied step. A non-nil result means some change
// could not be reverted and the store needs manual attention.
func (u *unitOfWork) abort(ctx context.Context) error {
	if u.tx != nil {
		return u.tx.Rollback().Error
	}

	// Compensations must run even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(u.undo) - 1; i >= 0; i-- {
		step := u.undo[i]
		if err := step.fn(ctx); err != nil {
			u.logger.Error("compensation failed",
				zap.String("step", step.step), zap.Error(err))
			errs = append(errs, fmt.Errorf("undo %s: %w", step.step, err))
		}
	}
	u.undo = nil
	return errors.Join(errs...)
}

func (u *unitOfWork) commit() error {
	u.undo = nil
	if u.tx != nil {
		return u.tx.Commit().Error
	}
	return nil
}
