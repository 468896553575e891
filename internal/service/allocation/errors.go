package allocation

import "errors"

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrSubscriberNotFound   = errors.New("subscriber not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("subscriber already registered for this event")
	ErrEventInactive        = errors.New("event is not accepting registrations")
	ErrEventFull            = errors.New("event is full")
	ErrWaitlistFull         = errors.New("waitlist is full")
	ErrRateLimited          = errors.New("rate limited")
	// ErrTooMuchContention is surfaced after the bounded retry budget is
	// spent on conditional-write conflicts. The caller may retry.
	ErrTooMuchContention = errors.New("too much contention, retry")
	// ErrInvariantViolation means stored state is inconsistent with the
	// capacity or ordering invariants. Not retryable.
	ErrInvariantViolation = errors.New("stored state violates invariants")
)
