package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
)

type RegistrationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *RegistrationRepo) With(db DB) *RegistrationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RegistrationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const registrationColumns = `id, event_id, subscriber_id, status, registered_at, waitlist_rank`

func scanRegistration(row interface{ Scan(dest ...any) error }) (*domain.Registration, error) {
	var reg domain.Registration
	if err := row.Scan(
		&reg.ID, &reg.EventID, &reg.SubscriberID, &reg.Status,
		&reg.RegisteredAt, &reg.WaitlistRank,
	); err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetForPair returns the live registration for the (event, subscriber) pair.
func (r *RegistrationRepo) GetForPair(ctx context.Context, eventID, subscriberID uuid.UUID) (*domain.Registration, error) {
	const op = "postgres.RegistrationRepo.GetForPair"

	db := r.handle()

	reg, err := scanRegistration(db.QueryRow(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1 AND subscriber_id = $2`,
		eventID, subscriberID,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return reg, nil
}

func (r *RegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	const op = "postgres.RegistrationRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO registrations (id, event_id, subscriber_id, status,
		 	registered_at, waitlist_rank)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reg.ID, reg.EventID, reg.SubscriberID, reg.Status,
		reg.RegisteredAt, reg.WaitlistRank,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

func (r *RegistrationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.RegistrationRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *RegistrationRepo) WaitlistSize(ctx context.Context, eventID uuid.UUID) (int, error) {
	const op = "postgres.RegistrationRepo.WaitlistSize"

	db := r.handle()

	var n int
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status = 'waitlisted'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return n, nil
}

// PromoteHead flips the rank-1 entry to confirmed. The registered_at column
// is deliberately untouched so the subscriber keeps their original ordering
// timestamp. Returns nil when the waitlist is empty.
func (r *RegistrationRepo) PromoteHead(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	const op = "postgres.RegistrationRepo.PromoteHead"

	db := r.handle()

	reg, err := scanRegistration(db.QueryRow(ctx,
		`UPDATE registrations
		 SET status = 'confirmed', waitlist_rank = NULL
		 WHERE event_id = $1 AND waitlist_rank = 1
		 RETURNING `+registrationColumns,
		eventID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return reg, nil
}

// CloseRankGap renumbers every entry behind the removed rank in one
// statement, keeping the sequence contiguous. The rank uniqueness constraint
// is deferred, so the bulk decrement commits cleanly.
func (r *RegistrationRepo) CloseRankGap(ctx context.Context, eventID uuid.UUID, removedRank int) error {
	const op = "postgres.RegistrationRepo.CloseRankGap"

	db := r.handle()

	_, err := db.Exec(ctx,
		`UPDATE registrations
		 SET waitlist_rank = waitlist_rank - 1
		 WHERE event_id = $1 AND waitlist_rank > $2`,
		eventID, removedRank,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// ListByEvent returns registrations for an event, confirmed entries first by
// registration time, then waitlisted entries by ascending rank. When the
// result carries the full waitlist, its ranks are checked for contiguity
// before being handed out.
func (r *RegistrationRepo) ListByEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	const op = "postgres.RegistrationRepo.ListByEvent"

	db := r.handle()

	query := `SELECT ` + registrationColumns + `
		 FROM registrations
		 WHERE event_id = $1`
	args := []any{eventID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY waitlist_rank NULLS FIRST, registered_at`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	out, err := collectRegistrations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if status == nil || *status == domain.RegistrationWaitlisted {
		var ranks []int
		for _, reg := range out {
			if reg.WaitlistRank != nil {
				ranks = append(ranks, *reg.WaitlistRank)
			}
		}
		if err := domain.CheckRanks(ranks); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, repository.ErrInvariant, err)
		}
	}

	return out, nil
}

func (r *RegistrationRepo) ListBySubscriber(
	ctx context.Context,
	subscriberID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	const op = "postgres.RegistrationRepo.ListBySubscriber"

	db := r.handle()

	query := `SELECT ` + registrationColumns + `
		 FROM registrations
		 WHERE subscriber_id = $1`
	args := []any{subscriberID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY registered_at`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	out, err := collectRegistrations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func collectRegistrations(rows pgx.Rows) ([]domain.Registration, error) {
	var out []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, translateDBErr(err)
		}
		out = append(out, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
