package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
)

type RegistrationStatus string

const (
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
)

// Event is a finite-capacity resource. Its capacity counters are the single
// source of truth for admission decisions and may only be mutated inside an
// allocation transaction.
type Event struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Date             time.Time
	Location         string
	Organizer        string
	Status           EventStatus
	Capacity         int
	CurrentAttendees int
	WaitlistEnabled  bool
	// WaitlistCapacity zero means unbounded.
	WaitlistCapacity int
	CreatedAt        time.Time
}

// AcceptsRegistrations reports whether the event is open for new
// registrations: it must be active and its date must not have passed.
func (e *Event) AcceptsRegistrations(now time.Time) bool {
	return e.Status == EventActive && e.Date.After(now)
}

// SeatsLeft returns the number of unclaimed confirmed slots.
func (e *Event) SeatsLeft() int {
	return e.Capacity - e.CurrentAttendees
}

// IsFull reports whether all confirmed slots are taken.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.Capacity
}

// WaitlistHasRoom reports whether the waitlist can take one more entry given
// its current size.
func (e *Event) WaitlistHasRoom(size int) bool {
	if !e.WaitlistEnabled {
		return false
	}
	return e.WaitlistCapacity == 0 || size < e.WaitlistCapacity
}

// Registration ties one subscriber to one event. RegisteredAt is fixed at
// first creation and survives promotion. WaitlistRank is set iff the
// registration is waitlisted.
type Registration struct {
	ID           uuid.UUID
	EventID      uuid.UUID
	SubscriberID uuid.UUID
	Status       RegistrationStatus
	RegisteredAt time.Time
	WaitlistRank *int
}

type Subscriber struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}
