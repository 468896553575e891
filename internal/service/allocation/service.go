// Package allocation implements the capacity-bounded registration engine.
//
// Register and Unregister run as atomic multi-record transactions against
// the allocation store. There is no lock at this layer: correctness under
// concurrent callers comes from the store's conditional writes, and a lost
// race is retried with fresh state a bounded number of times before the
// conflict is surfaced to the caller.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
	redisrepo "github.com/attendly/attendly/internal/repository/redis"
)

type Config struct {
	// MaxAttempts bounds how many times a conflicted transaction is
	// re-evaluated before ErrTooMuchContention is returned.
	MaxAttempts  int
	RetryBackoff time.Duration
	RosterTTL    time.Duration
}

type Service struct {
	store   repository.AllocationStore
	cache   *redisrepo.Cache
	pubsub  *redisrepo.RegistrationsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time
}

func New(
	store repository.AllocationStore,
	cache *redisrepo.Cache,
	pubsub *redisrepo.RegistrationsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 25 * time.Millisecond
	}

	if cfg.RosterTTL <= 0 {
		cfg.RosterTTL = 15 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Register admits the subscriber to the event or queues them on its
// waitlist.
//
// Returns:
//   - *domain.Registration: the created registration, confirmed or
//     waitlisted with its assigned rank.
//   - error: ErrEventNotFound, ErrSubscriberNotFound, ErrEventInactive,
//     ErrAlreadyRegistered, ErrEventFull, ErrWaitlistFull as definitive
//     rejections; ErrTooMuchContention when the retry budget is exhausted.
func (s *Service) Register(
	ctx context.Context,
	subscriberID, eventID uuid.UUID,
	rlKey string,
) (*domain.Registration, error) {
	const op = "service.allocation.Register"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w, retry in %s", op, ErrRateLimited, retry)
		}
	}

	var reg *domain.Registration
	err := s.withRetries(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.registerOnce(ctx, subscriberID, eventID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

func (s *Service) registerOnce(ctx context.Context, subscriberID, eventID uuid.UUID) (*domain.Registration, error) {
	var reg *domain.Registration

	err := s.store.InTx(ctx, func(
		ctx context.Context,
		tx repository.AllocationTx,
		after func(repository.AfterCommit),
	) error {
		ev, err := tx.Event(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return s.mapStorageErr(err)
		}

		if !ev.AcceptsRegistrations(s.now()) {
			return ErrEventInactive
		}

		exists, err := tx.SubscriberExists(ctx, subscriberID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrSubscriberNotFound
		}

		if _, err := tx.RegistrationForPair(ctx, eventID, subscriberID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		// The admission decision. The increment is conditional on
		// capacity still being free at write time, so a concurrent
		// winner pushes this call into the waitlist branch instead of
		// overbooking.
		seated, err := tx.ConfirmSeat(ctx, eventID)
		if err != nil {
			return err
		}

		r := &domain.Registration{
			ID:           uuid.New(),
			EventID:      eventID,
			SubscriberID: subscriberID,
			RegisteredAt: s.now().UTC(),
		}

		if seated {
			r.Status = domain.RegistrationConfirmed
		} else {
			if !ev.WaitlistEnabled {
				return ErrEventFull
			}

			size, err := tx.WaitlistSize(ctx, eventID)
			if err != nil {
				return err
			}
			if !ev.WaitlistHasRoom(size) {
				return ErrWaitlistFull
			}

			rank := domain.NextRank(size)
			r.Status = domain.RegistrationWaitlisted
			r.WaitlistRank = &rank
		}

		if err := tx.CreateRegistration(ctx, r); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyRegistered
			}
			return err
		}

		reg = r

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

// Unregister releases the subscriber's registration. Cancelling a confirmed
// slot hands it to the waitlist head in the same transaction; at most one
// promotion happens per call.
//
// Returns:
//   - *domain.Registration: the promoted registration, or nil when no
//     promotion occurred.
//   - error: ErrRegistrationNotFound when no live registration exists for
//     the pair; ErrTooMuchContention when the retry budget is exhausted.
func (s *Service) Unregister(ctx context.Context, subscriberID, eventID uuid.UUID) (*domain.Registration, error) {
	const op = "service.allocation.Unregister"

	var promoted *domain.Registration
	err := s.withRetries(ctx, func(ctx context.Context) error {
		var err error
		promoted, err = s.unregisterOnce(ctx, subscriberID, eventID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return promoted, nil
}

func (s *Service) unregisterOnce(ctx context.Context, subscriberID, eventID uuid.UUID) (*domain.Registration, error) {
	var promoted *domain.Registration

	err := s.store.InTx(ctx, func(
		ctx context.Context,
		tx repository.AllocationTx,
		after func(repository.AfterCommit),
	) error {
		reg, err := tx.RegistrationForPair(ctx, eventID, subscriberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		if err := tx.DeleteRegistration(ctx, reg.ID); err != nil {
			return err
		}

		switch reg.Status {
		case domain.RegistrationConfirmed:
			released, err := tx.ReleaseSeat(ctx, eventID)
			if err != nil {
				return s.mapStorageErr(err)
			}
			if !released {
				return s.invariant(fmt.Errorf(
					"confirmed registration %s with zero attendee count on event %s",
					reg.ID, eventID,
				))
			}

			head, err := tx.PromoteHead(ctx, eventID)
			if err != nil {
				return err
			}
			if head != nil {
				// The promoted head takes the slot vacated by the
				// delete above, so this conditional increment cannot
				// fail inside the same transaction.
				seated, err := tx.ConfirmSeat(ctx, eventID)
				if err != nil {
					return err
				}
				if !seated {
					return s.invariant(fmt.Errorf(
						"promotion of %s found event %s full after a release",
						head.ID, eventID,
					))
				}
				if err := tx.CloseRankGap(ctx, eventID, 1); err != nil {
					return err
				}
				promoted = head
			}

		case domain.RegistrationWaitlisted:
			if reg.WaitlistRank == nil {
				return s.invariant(fmt.Errorf(
					"waitlisted registration %s without a rank on event %s",
					reg.ID, eventID,
				))
			}
			if err := tx.CloseRankGap(ctx, eventID, *reg.WaitlistRank); err != nil {
				return err
			}
		}

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, eventID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// ListByEvent returns the event's registrations, waitlisted entries ordered
// by ascending rank. Pure read: never retried, never writes.
func (s *Service) ListByEvent(
	ctx context.Context,
	eventID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	const op = "service.allocation.ListByEvent"

	if _, err := s.store.Event(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(err))
	}

	if s.cache != nil && status == nil {
		regs, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			redisrepo.KeyEventRoster(eventID),
			s.cfg.RosterTTL,
			func(ctx context.Context) ([]domain.Registration, error) {
				return s.store.ListByEvent(ctx, eventID, nil)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(err))
		}
		return regs, nil
	}

	regs, err := s.store.ListByEvent(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(err))
	}

	return regs, nil
}

// ListBySubscriber returns the subscriber's registrations across events.
func (s *Service) ListBySubscriber(
	ctx context.Context,
	subscriberID uuid.UUID,
	status *domain.RegistrationStatus,
) ([]domain.Registration, error) {
	const op = "service.allocation.ListBySubscriber"

	exists, err := s.store.SubscriberExists(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriberNotFound)
	}

	regs, err := s.store.ListBySubscriber(ctx, subscriberID, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.mapStorageErr(err))
	}

	return regs, nil
}

// withRetries re-runs fn while it loses conditional-write races. Rejections
// and not-found outcomes pass through on the first attempt.
func (s *Service) withRetries(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if werr := s.backoff(ctx, attempt); werr != nil {
				return werr
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}

	return ErrTooMuchContention
}

func (s *Service) backoff(ctx context.Context, attempt int) error {
	d := time.Duration(attempt)*s.cfg.RetryBackoff + rand.N(s.cfg.RetryBackoff)

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) notifyChanged(ctx context.Context, eventID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishChanged(ctx, eventID)
	}
}

func (s *Service) mapStorageErr(err error) error {
	if errors.Is(err, repository.ErrInvariant) {
		return s.invariant(err)
	}
	return err
}

func (s *Service) invariant(err error) error {
	s.logger.Error("allocation invariant violated", "error", err)
	if errors.Is(err, repository.ErrInvariant) {
		return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return fmt.Errorf("%w: %w: %w", ErrInvariantViolation, repository.ErrInvariant, err)
}
