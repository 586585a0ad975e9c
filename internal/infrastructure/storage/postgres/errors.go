package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
)

// PostgreSQL error codes the engine cares about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
)

// MapError translates driver errors into application errors. Concurrency
// failures surface as ConcurrencyConflict for the caller to retry; the
// engine itself never retries.
func MapError(err error, entity, entityID string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, "key", entityID).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("referenced by other records").
			WithDetail("entity", entity).
			WithDetail("id", entityID).
			WithCause(err)
	case pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable:
		return apperror.NewConcurrencyConflict(entity, entityID).WithCause(err)
	}

	return err
}
