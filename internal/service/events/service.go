// Package events manages the event records the registration engine
// allocates against. It owns the descriptive fields and capacity settings;
// the attendee counter itself is only ever written by allocation
// transactions.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
	redisrepo "github.com/attendly/attendly/internal/repository/redis"
)

type Service struct {
	store  repository.EventStore
	cache  *redisrepo.Cache
	pubsub *redisrepo.RegistrationsPubSub
	now    func() time.Time
}

func New(store repository.EventStore, cache *redisrepo.Cache, pubsub *redisrepo.RegistrationsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		now:    time.Now,
	}
}

// CreateParams carries the caller-supplied event fields. Status defaults to
// draft.
type CreateParams struct {
	Title            string
	Description      string
	Date             time.Time
	Location         string
	Organizer        string
	Status           domain.EventStatus
	Capacity         int
	WaitlistEnabled  bool
	WaitlistCapacity int
}

// UpdateParams carries a partial update; nil fields keep their stored
// values.
type UpdateParams struct {
	Title            *string
	Description      *string
	Date             *time.Time
	Location         *string
	Organizer        *string
	Status           *domain.EventStatus
	Capacity         *int
	WaitlistEnabled  *bool
	WaitlistCapacity *int
}

func validStatus(s domain.EventStatus) bool {
	switch s {
	case domain.EventDraft, domain.EventActive, domain.EventCancelled:
		return true
	}
	return false
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.Event, error) {
	const op = "service.events.Create"

	if p.Title == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTitleRequired)
	}
	if p.Capacity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCapacity)
	}
	if p.Status == "" {
		p.Status = domain.EventDraft
	}
	if !validStatus(p.Status) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}

	ev := &domain.Event{
		ID:               uuid.New(),
		Title:            p.Title,
		Description:      p.Description,
		Date:             p.Date,
		Location:         p.Location,
		Organizer:        p.Organizer,
		Status:           p.Status,
		Capacity:         p.Capacity,
		WaitlistEnabled:  p.WaitlistEnabled,
		WaitlistCapacity: p.WaitlistCapacity,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ev, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const op = "service.events.Get"

	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ev, nil
}

// Update applies a partial update. Capacity may be raised freely but never
// lowered below the current confirmed count; the store enforces the floor
// with a conditional write so a concurrent registration cannot slip past
// it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*domain.Event, error) {
	const op = "service.events.Update"

	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Title != nil {
		if *p.Title == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrTitleRequired)
		}
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.Organizer != nil {
		ev.Organizer = *p.Organizer
	}
	if p.Status != nil {
		if !validStatus(*p.Status) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
		}
		ev.Status = *p.Status
	}
	if p.Capacity != nil {
		if *p.Capacity <= 0 {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCapacity)
		}
		ev.Capacity = *p.Capacity
	}
	if p.WaitlistEnabled != nil {
		ev.WaitlistEnabled = *p.WaitlistEnabled
	}
	if p.WaitlistCapacity != nil {
		ev.WaitlistCapacity = *p.WaitlistCapacity
	}

	if err := s.store.UpdateEvent(ctx, ev); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityBelowAttendees):
			return nil, fmt.Errorf("%s: %w", op, ErrCapacityBelowAttendees)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notifyChanged(ctx, id)

	return ev, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "service.events.Delete"

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifyChanged(ctx, id)

	return nil
}

func (s *Service) List(ctx context.Context, status *domain.EventStatus) ([]domain.Event, error) {
	const op = "service.events.List"

	if status != nil && !validStatus(*status) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}

	evs, err := s.store.ListEvents(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return evs, nil
}

func (s *Service) notifyChanged(ctx context.Context, eventID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishChanged(ctx, eventID)
	}
}
