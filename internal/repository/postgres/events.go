package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const eventColumns = `id, title, description, date, location, organizer, status,
	capacity, current_attendees, waitlist_enabled, waitlist_capacity, created_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	var e domain.Event
	var waitlistCap sql.NullInt32
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Organizer,
		&e.Status, &e.Capacity, &e.CurrentAttendees, &e.WaitlistEnabled,
		&waitlistCap, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if waitlistCap.Valid {
		e.WaitlistCapacity = int(waitlistCap.Int32)
	}
	return &e, nil
}

func waitlistCapParam(e *domain.Event) any {
	if e.WaitlistCapacity <= 0 {
		return nil
	}
	return e.WaitlistCapacity
}

// Get retrieves an event by id. A row whose counters break the capacity
// invariant is reported as corrupt rather than returned.
func (r *EventRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	db := r.handle()

	e, err := scanEvent(db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if err := domain.CheckEventCounts(e); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, repository.ErrInvariant, err)
	}

	return e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO events (id, title, description, date, location, organizer,
		 	status, capacity, current_attendees, waitlist_enabled,
		 	waitlist_capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Title, e.Description, e.Date, e.Location, e.Organizer,
		e.Status, e.Capacity, e.CurrentAttendees, e.WaitlistEnabled,
		waitlistCapParam(e), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// Update rewrites the event's descriptive fields and capacity settings. The
// capacity write is conditional: it lands only while the new capacity still
// covers the confirmed count, so a concurrent registration cannot be
// stranded above the limit.
func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, date = $4, location = $5,
		 	organizer = $6, status = $7, capacity = $8,
		 	waitlist_enabled = $9, waitlist_capacity = $10
		 WHERE id = $1 AND current_attendees <= $8`,
		e.ID, e.Title, e.Description, e.Date, e.Location, e.Organizer,
		e.Status, e.Capacity, e.WaitlistEnabled, waitlistCapParam(e),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, e.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		if exists {
			return fmt.Errorf("%s: %w", op, repository.ErrCapacityBelowAttendees)
		}
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes the event; its registrations go with it via cascade.
func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.EventRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *EventRepo) List(ctx context.Context, status *domain.EventStatus) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	db := r.handle()

	query := `SELECT ` + eventColumns + ` FROM events`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY date`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ConfirmSeat is the conditional write at the heart of admission: the
// increment succeeds only if a slot is still free at write time, so two
// racers for the last slot cannot both win.
func (r *EventRepo) ConfirmSeat(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "postgres.EventRepo.ConfirmSeat"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET current_attendees = current_attendees + 1
		 WHERE id = $1 AND current_attendees < capacity`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return tag.RowsAffected() == 1, nil
}

// ReleaseSeat decrements the attendee counter, refusing to go below zero.
func (r *EventRepo) ReleaseSeat(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "postgres.EventRepo.ReleaseSeat"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET current_attendees = current_attendees - 1
		 WHERE id = $1 AND current_attendees > 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return tag.RowsAffected() == 1, nil
}
