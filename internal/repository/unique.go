package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "mentorlink/backend/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	singleCurrentIndexKey = "idx_academic_sessions_single_current"
)

// translateUnique turns a postgres unique violation into ErrCurrentTaken or
// ErrDuplicate, keeping the driver error in the chain. Other errors pass through.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	if pgErr.ConstraintName == singleCurrentIndexKey {
		return fmt.Errorf("%w: %w", pkgerrors.ErrCurrentTaken, err)
	}
	return fmt.Errorf("%w: %s: %w", pkgerrors.ErrDuplicate, pgErr.ConstraintName, err)
}
