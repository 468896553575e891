package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
)

var (
	_ repository.AllocationStore = (*Adapter)(nil)
	_ repository.EventStore      = (*Adapter)(nil)
	_ repository.SubscriberStore = (*Adapter)(nil)
	_ repository.AllocationTx    = (*allocationTx)(nil)
)

// Adapter exposes the SQL store under the repository contracts. Reads go
// straight to the pool; InTx binds every repo to one serializable
// transaction and runs after-commit hooks once the commit lands.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.AllocationTx, after func(repository.AfterCommit)) error,
) error {
	var hooks []repository.AfterCommit

	err := a.store.RunTx(ctx, nil, func(ctx context.Context, db DB) error {
		tx := &allocationTx{
			events:        a.store.Events().With(db),
			subscribers:   a.store.Subscribers().With(db),
			registrations: a.store.Registrations().With(db),
		}
		return fn(ctx, tx, func(h repository.AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

func (a *Adapter) Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return a.store.Events().Get(ctx, eventID)
}

func (a *Adapter) SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error) {
	return a.store.Subscribers().Exists(ctx, subscriberID)
}

func (a *Adapter) ListByEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	return a.store.Registrations().ListByEvent(ctx, eventID, status)
}

func (a *Adapter) ListBySubscriber(
	ctx context.Context,
	subscriberID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	return a.store.Registrations().ListBySubscriber(ctx, subscriberID, status)
}

func (a *Adapter) CreateEvent(ctx context.Context, ev *domain.Event) error {
	return a.store.Events().Create(ctx, ev)
}

func (a *Adapter) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return a.store.Events().Get(ctx, eventID)
}

func (a *Adapter) UpdateEvent(ctx context.Context, ev *domain.Event) error {
	return a.store.Events().Update(ctx, ev)
}

func (a *Adapter) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	return a.store.Events().Delete(ctx, eventID)
}

func (a *Adapter) ListEvents(ctx context.Context, status *domain.EventStatus) ([]domain.Event, error) {
	return a.store.Events().List(ctx, status)
}

func (a *Adapter) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	return a.store.Subscribers().Create(ctx, sub)
}

func (a *Adapter) GetSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscriber, error) {
	return a.store.Subscribers().Get(ctx, subscriberID)
}

// allocationTx is the transaction-bound view handed to the allocation
// engine.
type allocationTx struct {
	events        *EventRepo
	subscribers   *SubscriberRepo
	registrations *RegistrationRepo
}

func (t *allocationTx) Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return t.events.Get(ctx, eventID)
}

func (t *allocationTx) SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error) {
	return t.subscribers.Exists(ctx, subscriberID)
}

func (t *allocationTx) RegistrationForPair(ctx context.Context, eventID, subscriberID uuid.UUID) (*domain.Registration, error) {
	return t.registrations.GetForPair(ctx, eventID, subscriberID)
}

func (t *allocationTx) WaitlistSize(ctx context.Context, eventID uuid.UUID) (int, error) {
	return t.registrations.WaitlistSize(ctx, eventID)
}

func (t *allocationTx) ConfirmSeat(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return t.events.ConfirmSeat(ctx, eventID)
}

func (t *allocationTx) ReleaseSeat(ctx context.Context, eventID uuid.UUID) (bool, error) {
	return t.events.ReleaseSeat(ctx, eventID)
}

func (t *allocationTx) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	return t.registrations.Create(ctx, reg)
}

func (t *allocationTx) DeleteRegistration(ctx context.Context, registrationID uuid.UUID) error {
	return t.registrations.Delete(ctx, registrationID)
}

func (t *allocationTx) PromoteHead(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	return t.registrations.PromoteHead(ctx, eventID)
}

func (t *allocationTx) CloseRankGap(ctx context.Context, eventID uuid.UUID, removedRank int) error {
	return t.registrations.CloseRankGap(ctx, eventID, removedRank)
}
