// Package repository defines the persistence contracts for the registration
// engine and the sentinel errors shared by their implementations.
//
// The allocation contract is deliberately narrow: reads by id, plus an
// atomic multi-record transaction whose capacity writes are conditional.
// Implementations live in subpackages (postgres for production, memory for
// tests and local development).
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
)

// AfterCommit runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// AllocationTx is the set of record operations available inside one atomic
// allocation transaction. Either every write in the transaction lands or
// none do; a failed commit surfaces ErrConflict when caused by a concurrent
// writer.
type AllocationTx interface {
	// Event reads the event row, including its capacity counters, as of
	// the transaction snapshot.
	Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error)
	// RegistrationForPair returns the live registration for the pair or
	// ErrNotFound.
	RegistrationForPair(ctx context.Context, eventID, subscriberID uuid.UUID) (*domain.Registration, error)
	WaitlistSize(ctx context.Context, eventID uuid.UUID) (int, error)

	// ConfirmSeat increments the attendee counter iff it is still below
	// capacity at write time. Returns false when the event is full.
	ConfirmSeat(ctx context.Context, eventID uuid.UUID) (bool, error)
	// ReleaseSeat decrements the attendee counter iff it is positive.
	ReleaseSeat(ctx context.Context, eventID uuid.UUID) (bool, error)

	CreateRegistration(ctx context.Context, reg *domain.Registration) error
	DeleteRegistration(ctx context.Context, registrationID uuid.UUID) error
	// PromoteHead flips the rank-1 waitlisted registration to confirmed,
	// clearing its rank and leaving its timestamp untouched. Returns nil
	// when the waitlist is empty.
	PromoteHead(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error)
	// CloseRankGap decrements every waitlist rank greater than the given
	// one, restoring contiguity after a removal.
	CloseRankGap(ctx context.Context, eventID uuid.UUID, removedRank int) error
}

// AllocationStore is the durable store behind the allocation engine.
type AllocationStore interface {
	// InTx runs fn inside one atomic transaction. Hooks registered via
	// after run only once the transaction has committed.
	InTx(ctx context.Context, fn func(ctx context.Context, tx AllocationTx, after func(AfterCommit)) error) error

	Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error)
	// ListByEvent returns registrations for an event, waitlisted entries
	// ordered by ascending rank. A nil status returns all.
	ListByEvent(ctx context.Context, eventID uuid.UUID, status *domain.RegistrationStatus) ([]domain.Registration, error)
	ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, status *domain.RegistrationStatus) ([]domain.Registration, error)
}

// EventStore persists event records for the management surface. Capacity
// counters are written only through AllocationTx; Update refuses to lower
// capacity below the current attendee count.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *domain.Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	UpdateEvent(ctx context.Context, ev *domain.Event) error
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
	ListEvents(ctx context.Context, status *domain.EventStatus) ([]domain.Event, error)
}

// SubscriberStore persists subscriber records.
type SubscriberStore interface {
	CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error
	GetSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscriber, error)
}
