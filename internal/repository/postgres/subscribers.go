package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/attendly/internal/domain"
)

type SubscriberRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SubscriberRepo) With(db DB) *SubscriberRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SubscriberRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *SubscriberRepo) Create(ctx context.Context, sub *domain.Subscriber) error {
	const op = "postgres.SubscriberRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO subscribers (id, name, email, created_at)
		 VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.Name, sub.Email, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

func (r *SubscriberRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	const op = "postgres.SubscriberRepo.Get"

	db := r.handle()

	var sub domain.Subscriber
	err := db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM subscribers WHERE id = $1`,
		id,
	).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return &sub, nil
}

func (r *SubscriberRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "postgres.SubscriberRepo.Exists"

	db := r.handle()

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscribers WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return exists, nil
}
