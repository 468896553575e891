package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/attendly/attendly/internal/repository"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
)

// translateDBErr maps driver errors to repository-level sentinels. A unique
// violation on the (event, subscriber) pair is a duplicate registration;
// one on the rank sequence is a transient race between two allocation
// transactions. A check violation means a write slipped past a capacity or
// ordering precondition, which the engine treats as fatal.
func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return repository.ErrConflict
		case codeUniqueViolation:
			switch pge.ConstraintName {
			case "registrations_pair_key":
				return repository.ErrDuplicate
			case "registrations_rank_key":
				return repository.ErrConflict
			case "subscribers_email_key":
				return repository.ErrDuplicate
			}
			return repository.ErrDuplicate
		case codeCheckViolation:
			return repository.ErrInvariant
		}
	}

	return err
}
