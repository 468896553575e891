// Package memory provides an in-memory implementation of the repository
// contracts. Transactions are serialized by a single mutex and applied
// copy-on-write, so a failed transaction leaves no partial state behind.
// It backs the engine's unit tests and local development without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
)

var (
	_ repository.AllocationStore = (*Store)(nil)
	_ repository.EventStore      = (*Store)(nil)
	_ repository.SubscriberStore = (*Store)(nil)
	_ repository.AllocationTx    = (*memTx)(nil)
)

type Store struct {
	mu            sync.Mutex
	events        map[uuid.UUID]domain.Event
	subscribers   map[uuid.UUID]domain.Subscriber
	registrations map[uuid.UUID]domain.Registration
}

func NewStore() *Store {
	return &Store{
		events:        make(map[uuid.UUID]domain.Event),
		subscribers:   make(map[uuid.UUID]domain.Subscriber),
		registrations: make(map[uuid.UUID]domain.Registration),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.AllocationTx, after func(repository.AfterCommit)) error,
) error {
	s.mu.Lock()

	tx := &memTx{
		events:        cloneMap(s.events),
		subscribers:   cloneMap(s.subscribers),
		registrations: cloneMap(s.registrations),
	}

	var hooks []repository.AfterCommit
	err := fn(ctx, tx, func(h repository.AfterCommit) {
		hooks = append(hooks, h)
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.events = tx.events
	s.subscribers = tx.subscribers
	s.registrations = tx.registrations
	s.mu.Unlock()

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

func (s *Store) Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getEvent(s.events, eventID)
}

func (s *Store) SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subscribers[subscriberID]
	return ok, nil
}

func (s *Store) ListByEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Registration
	var ranks []int
	for _, reg := range s.registrations {
		if reg.EventID != eventID {
			continue
		}
		if reg.WaitlistRank != nil {
			ranks = append(ranks, *reg.WaitlistRank)
		}
		if status != nil && reg.Status != *status {
			continue
		}
		out = append(out, reg)
	}

	if status == nil || *status == domain.RegistrationWaitlisted {
		if err := domain.CheckRanks(ranks); err != nil {
			return nil, fmt.Errorf("%w: %w", repository.ErrInvariant, err)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i], out[j]
		if (ri.WaitlistRank == nil) != (rj.WaitlistRank == nil) {
			return ri.WaitlistRank == nil
		}
		if ri.WaitlistRank != nil {
			return *ri.WaitlistRank < *rj.WaitlistRank
		}
		return ri.RegisteredAt.Before(rj.RegisteredAt)
	})

	return out, nil
}

func (s *Store) ListBySubscriber(
	ctx context.Context,
	subscriberID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Registration
	for _, reg := range s.registrations {
		if reg.SubscriberID != subscriberID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		out = append(out, reg)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})

	return out, nil
}

func (s *Store) CreateEvent(ctx context.Context, ev *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.ID]; ok {
		return repository.ErrDuplicate
	}
	s.events[ev.ID] = *ev
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return s.Event(ctx, eventID)
}

func (s *Store) UpdateEvent(ctx context.Context, ev *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[ev.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if ev.Capacity < current.CurrentAttendees {
		return repository.ErrCapacityBelowAttendees
	}

	updated := *ev
	updated.CurrentAttendees = current.CurrentAttendees
	updated.CreatedAt = current.CreatedAt
	s.events[ev.ID] = updated
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, eventID)
	for id, reg := range s.registrations {
		if reg.EventID == eventID {
			delete(s.registrations, id)
		}
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, status *domain.EventStatus) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Event
	for _, ev := range s.events {
		if status != nil && ev.Status != *status {
			continue
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out, nil
}

func (s *Store) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subscribers {
		if existing.Email == sub.Email {
			return repository.ErrDuplicate
		}
	}
	s.subscribers[sub.ID] = *sub
	return nil
}

func (s *Store) GetSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscribers[subscriberID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func getEvent(events map[uuid.UUID]domain.Event, eventID uuid.UUID) (*domain.Event, error) {
	ev, ok := events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := domain.CheckEventCounts(&ev); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvariant, err)
	}
	return &ev, nil
}

// memTx operates on cloned maps; the store swaps them in only when the
// transaction body returns nil.
type memTx struct {
	events        map[uuid.UUID]domain.Event
	subscribers   map[uuid.UUID]domain.Subscriber
	registrations map[uuid.UUID]domain.Registration
}

func (t *memTx) Event(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return getEvent(t.events, eventID)
}

func (t *memTx) SubscriberExists(ctx context.Context, subscriberID uuid.UUID) (bool, error) {
	_, ok := t.subscribers[subscriberID]
	return ok, nil
}

func (t *memTx) RegistrationForPair(ctx context.Context, eventID, subscriberID uuid.UUID) (*domain.Registration, error) {
	for _, reg := range t.registrations {
		if reg.EventID == eventID && reg.SubscriberID == subscriberID {
			return &reg, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *memTx) WaitlistSize(ctx context.Context, eventID uuid.UUID) (int, error) {
	n := 0
	for _, reg := range t.registrations {
		if reg.EventID == eventID && reg.Status == domain.RegistrationWaitlisted {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ConfirmSeat(ctx context.Context, eventID uuid.UUID) (bool, error) {
	ev, ok := t.events[eventID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ev.CurrentAttendees >= ev.Capacity {
		return false, nil
	}
	ev.CurrentAttendees++
	t.events[eventID] = ev
	return true, nil
}

func (t *memTx) ReleaseSeat(ctx context.Context, eventID uuid.UUID) (bool, error) {
	ev, ok := t.events[eventID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ev.CurrentAttendees <= 0 {
		return false, nil
	}
	ev.CurrentAttendees--
	t.events[eventID] = ev
	return true, nil
}

func (t *memTx) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	for _, existing := range t.registrations {
		if existing.EventID == reg.EventID && existing.SubscriberID == reg.SubscriberID {
			return repository.ErrDuplicate
		}
		if reg.WaitlistRank != nil && existing.EventID == reg.EventID &&
			existing.WaitlistRank != nil && *existing.WaitlistRank == *reg.WaitlistRank {
			return repository.ErrConflict
		}
	}

	stored := *reg
	if reg.WaitlistRank != nil {
		rank := *reg.WaitlistRank
		stored.WaitlistRank = &rank
	}
	t.registrations[reg.ID] = stored
	return nil
}

func (t *memTx) DeleteRegistration(ctx context.Context, registrationID uuid.UUID) error {
	if _, ok := t.registrations[registrationID]; !ok {
		return repository.ErrNotFound
	}
	delete(t.registrations, registrationID)
	return nil
}

func (t *memTx) PromoteHead(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	for id, reg := range t.registrations {
		if reg.EventID == eventID && reg.WaitlistRank != nil && *reg.WaitlistRank == 1 {
			reg.Status = domain.RegistrationConfirmed
			reg.WaitlistRank = nil
			t.registrations[id] = reg
			return &reg, nil
		}
	}
	return nil, nil
}

func (t *memTx) CloseRankGap(ctx context.Context, eventID uuid.UUID, removedRank int) error {
	for id, reg := range t.registrations {
		if reg.EventID != eventID || reg.WaitlistRank == nil || *reg.WaitlistRank <= removedRank {
			continue
		}
		rank := *reg.WaitlistRank - 1
		reg.WaitlistRank = &rank
		t.registrations[id] = reg
	}
	return nil
}
