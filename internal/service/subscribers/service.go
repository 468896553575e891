// Package subscribers provides the minimal subscriber records the engine's
// existence checks run against.
package subscribers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
)

var (
	ErrNotFound      = errors.New("subscriber not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrEmailRequired = errors.New("email is required")
	ErrNameRequired  = errors.New("name is required")
)

type Service struct {
	store repository.SubscriberStore
	now   func() time.Time
}

func New(store repository.SubscriberStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Create(ctx context.Context, name, email string) (*domain.Subscriber, error) {
	const op = "service.subscribers.Create"

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}
	if email == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailRequired)
	}

	sub := &domain.Subscriber{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.CreateSubscriber(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sub, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	const op = "service.subscribers.Get"

	sub, err := s.store.GetSubscriber(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sub, nil
}
